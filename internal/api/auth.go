package api

import (
	"errors"
	"net/http"

	"communityhub-backend/internal/middleware"
	"communityhub-backend/internal/supabase"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login signs in with Supabase Auth and also sets the session cookie used
// by the admin page.
func (s *Server) Login(c *gin.Context) {
	if s.supabase == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Authentication is not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.supabase.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var sErr *supabase.SupabaseError
		if errors.As(err, &sErr) && sErr.StatusCode < 500 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, resp.AccessToken, int(resp.ExpiresIn), "/", "", c.Request.TLS != nil, true)
	s.log.WithField("user_id", resp.User.ID).Info("Admin signed in")

	c.JSON(http.StatusOK, gin.H{
		"access_token":  resp.AccessToken,
		"refresh_token": resp.RefreshToken,
		"expires_in":    resp.ExpiresIn,
		"user":          resp.User,
	})
}

// Logout revokes the token and drops the session's dashboard.
func (s *Server) Logout(c *gin.Context) {
	id, _ := middleware.Identity(c)
	if s.supabase != nil {
		if err := s.supabase.SignOut(c.Request.Context(), middleware.Token(c)); err != nil {
			s.log.WithError(err).Warn("Supabase sign out failed")
		}
	}
	s.sessions.Drop(id.UserID)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
	id, _ := middleware.Identity(c)
	c.JSON(http.StatusOK, id)
}
