package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"communityhub-backend/internal/coordinator"
	"communityhub-backend/internal/fallback"
	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/models"

	"github.com/gin-gonic/gin"
)

var errInvalidCategory = errors.New("category must be a category ID or \"all\"")

// categoryFromQuery reads ?category=. "all" or an empty value selects every
// category.
func categoryFromQuery(c *gin.Context) (*int64, error) {
	raw := c.Query("category")
	if raw == "" || raw == "all" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, errInvalidCategory
	}
	return &id, nil
}

func (s *Server) liveDirectory(ctx context.Context, category *int64) (models.ResourceDirectory, error) {
	categories, err := s.gw.ListCategories(ctx, false)
	if err != nil {
		return models.ResourceDirectory{}, err
	}
	resources, err := s.gw.ListResources(ctx, gateway.ResourceQuery{CategoryID: category})
	if err != nil {
		return models.ResourceDirectory{}, err
	}
	return models.ResourceDirectory{Categories: categories, Resources: resources}, nil
}

func directoryBody(source string, dir models.ResourceDirectory) gin.H {
	categories, resources := dir.Categories, dir.Resources
	if categories == nil {
		categories = []models.ResourceCategory{}
	}
	if resources == nil {
		resources = []models.Resource{}
	}
	return gin.H{"source": source, "categories": categories, "resources": resources}
}

// ListResources serves the public resource directory, optionally narrowed
// to one category. When the backend is down the static resources file is
// used instead.
func (s *Server) ListResources(c *gin.Context) {
	category, err := categoryFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var cause error = errBackendDown
	if s.backendUp() {
		dir, err := s.liveDirectory(c.Request.Context(), category)
		if err == nil {
			c.JSON(http.StatusOK, directoryBody(sourceLive, dir))
			return
		}
		cause = err
	}

	s.serveFile(c, cause, s.resFile != nil, func() (any, error) {
		dir, err := s.resFile.Load()
		if err != nil {
			return nil, err
		}
		dir.Resources = fallback.InCategory(dir.Resources, category)
		return directoryBody(sourceFallback, dir), nil
	})
}

type directoryResponse struct {
	Categories []models.ResourceCategory         `json:"categories"`
	Resources  []models.Resource                 `json:"resources"`
	Pending    *coordinator.ResourceConfirmation `json:"pending_delete,omitempty"`
	Banner     string                            `json:"banner,omitempty"`
}

// AdminResources lists the whole directory, inactive entries included.
func (s *Server) AdminResources(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	res := d.Resources()
	dir, err := res.Directory(c.Request.Context())
	if err != nil && !res.Loaded() {
		respondError(c, err)
		return
	}
	category, cerr := categoryFromQuery(c)
	if cerr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": cerr.Error()})
		return
	}

	body := directoryResponse{Categories: dir.Categories, Resources: fallback.InCategory(dir.Resources, category)}
	if body.Categories == nil {
		body.Categories = []models.ResourceCategory{}
	}
	if body.Resources == nil {
		body.Resources = []models.Resource{}
	}
	if err != nil {
		s.log.WithError(err).Warn("Serving cached resources after failed reload")
		body.Banner = err.Error()
	}
	if p, ok := res.Pending(); ok {
		body.Pending = &p
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) AdminCategories(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	res := d.Resources()
	dir, err := res.Directory(c.Request.Context())
	if err != nil && !res.Loaded() {
		respondError(c, err)
		return
	}
	if dir.Categories == nil {
		dir.Categories = []models.ResourceCategory{}
	}
	c.JSON(http.StatusOK, dir.Categories)
}

func (s *Server) GetResource(c *gin.Context) {
	id, ok := parseIDOf(c, "resource")
	if !ok {
		return
	}
	resource, err := s.gw.GetResource(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resource)
}

func respondResource(c *gin.Context, status int, resource models.Resource, err error) {
	if err != nil && resource.ID == 0 {
		respondError(c, err)
		return
	}
	body := gin.H{"resource": resource}
	if err != nil {
		body["warning"] = err.Error()
	}
	c.JSON(status, body)
}

func (s *Server) CreateResource(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	var draft models.ResourceDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := d.Resources().Create(c.Request.Context(), draft)
	respondResource(c, http.StatusCreated, created, err)
}

func (s *Server) UpdateResource(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	id, ok := parseIDOf(c, "resource")
	if !ok {
		return
	}
	var draft models.ResourceDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := d.Resources().Update(c.Request.Context(), id, draft)
	respondResource(c, http.StatusOK, updated, err)
}

// RequestResourceDelete opens the confirmation step; nothing is deleted yet.
func (s *Server) RequestResourceDelete(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	id, ok := parseIDOf(c, "resource")
	if !ok {
		return
	}
	res := d.Resources()
	if _, err := res.Directory(c.Request.Context()); err != nil && !res.Loaded() {
		respondError(c, err)
		return
	}
	conf, err := res.RequestDelete(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conf)
}

func (s *Server) PendingResourceDelete(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	conf, ok := d.Resources().Pending()
	if !ok {
		respondError(c, coordinator.ErrNoPendingDelete)
		return
	}
	c.JSON(http.StatusOK, conf)
}

func (s *Server) CancelResourceDelete(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	d.Resources().CancelDelete()
	c.Status(http.StatusNoContent)
}

func (s *Server) ConfirmResourceDelete(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	deleted, err := d.Resources().ConfirmDelete(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
