package api

import (
	"communityhub-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, s *Server) {
	router.Use(middleware.CORSSpecific(s.cfg.GetCORSOrigins()))
	router.Use(middleware.Metrics(s.metrics))

	router.GET("/health", s.Health)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	requireAuth := middleware.AuthRequired(s.verifier)

	// Server-rendered admin table
	page := router.Group("/admin")
	page.Use(requireAuth)
	{
		page.GET("/events", s.AdminPage)
		page.POST("/events", s.CreateEventForm)
		page.POST("/events/:id", s.UpdateEventForm)
		page.POST("/events/:id/delete", s.RequestDeleteForm)
		page.POST("/delete/confirm", s.ConfirmDeleteForm)
		page.POST("/delete/cancel", s.CancelDeleteForm)
	}

	v1 := router.Group("/api/v1")
	{
		// Public site
		v1.GET("/events/featured", s.FeaturedEvents)
		v1.GET("/events.ics", s.Calendar)
		v1.GET("/groups", s.ListGroups)
		v1.GET("/groups/:id/events", s.GroupEvents)
		v1.GET("/resources", s.ListResources)

		auth := v1.Group("/auth")
		{
			auth.POST("/login", s.Login)
			auth.POST("/logout", requireAuth, s.Logout)
			auth.GET("/me", requireAuth, s.Me)
		}

		admin := v1.Group("/admin")
		admin.Use(requireAuth)
		{
			admin.GET("/events", s.ListEvents)
			admin.POST("/events", s.CreateEvent)
			admin.GET("/events/:id", s.GetEvent)
			admin.PUT("/events/:id", s.UpdateEvent)
			admin.POST("/events/:id/delete", s.RequestDelete)

			admin.GET("/delete", s.PendingDelete)
			admin.POST("/delete/confirm", s.ConfirmDelete)
			admin.POST("/delete/cancel", s.CancelDelete)

			admin.GET("/groups", s.AdminGroups)

			admin.GET("/resources", s.AdminResources)
			admin.POST("/resources", s.CreateResource)
			admin.GET("/resources/:id", s.GetResource)
			admin.PUT("/resources/:id", s.UpdateResource)
			admin.POST("/resources/:id/delete", s.RequestResourceDelete)

			admin.GET("/resource-delete", s.PendingResourceDelete)
			admin.POST("/resource-delete/confirm", s.ConfirmResourceDelete)
			admin.POST("/resource-delete/cancel", s.CancelResourceDelete)

			admin.GET("/resource-categories", s.AdminCategories)

			view := admin.Group("/view")
			{
				view.PUT("/filter", s.SetFilter)
				view.POST("/sort", s.SetSort)
				view.PUT("/page", s.SetPage)
				view.POST("/next", s.NextPage)
				view.POST("/prev", s.PrevPage)
				view.POST("/reload", s.Reload)
			}

			admin.POST("/uploads", s.UploadFlyer)
			admin.DELETE("/uploads/flyers/:name", s.DeleteFlyer)
		}
	}
}
