package api

import (
	"net/http"
	"strconv"

	"communityhub-backend/internal/coordinator"
	"communityhub-backend/internal/dashboard"
	"communityhub-backend/internal/middleware"
	"communityhub-backend/internal/models"
	"communityhub-backend/internal/render"
	"communityhub-backend/internal/viewmodel"

	"github.com/gin-gonic/gin"
)

type viewResponse struct {
	View    viewmodel.View            `json:"view"`
	Table   render.Table              `json:"table"`
	Pending *coordinator.Confirmation `json:"pending_delete,omitempty"`
	Banner  string                    `json:"banner,omitempty"`
}

type filterRequest struct {
	Search   string `json:"search"`
	GroupID  *int64 `json:"group_id"`
	Featured string `json:"featured"`
}

type sortRequest struct {
	Field     string `json:"field" binding:"required"`
	Direction string `json:"direction"`
}

type pageRequest struct {
	Page int `json:"page" binding:"required"`
}

func (s *Server) session(c *gin.Context) (*dashboard.Dashboard, bool) {
	id, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return nil, false
	}
	return s.sessions.Get(id.UserID), true
}

func parseID(c *gin.Context) (int64, bool) {
	return parseIDOf(c, "event")
}

func parseIDOf(c *gin.Context, noun string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + noun + " ID"})
		return 0, false
	}
	return id, true
}

// respondView answers with the current page. A failed reload is reported as
// a banner over the last good data, or as an error when there is none.
func (s *Server) respondView(c *gin.Context, d *dashboard.Dashboard, v viewmodel.View, err error) {
	resp := viewResponse{View: v, Table: render.Project(v)}
	if err != nil {
		if !d.Loaded() {
			respondError(c, err)
			return
		}
		s.log.WithError(err).Warn("Serving cached events after failed reload")
		resp.Banner = err.Error()
	}
	if p, ok := d.Coordinator().Pending(); ok {
		resp.Pending = &p
	}
	c.JSON(http.StatusOK, resp)
}

func (r filterRequest) toState() (viewmodel.FilterState, error) {
	featured, err := viewmodel.ParseFeatured(r.Featured)
	if err != nil {
		return viewmodel.FilterState{}, err
	}
	return viewmodel.FilterState{Search: r.Search, GroupID: r.GroupID, Featured: featured}, nil
}

// filterFromQuery reads ?search=&group=&featured=. It returns false when
// none of them is present.
func filterFromQuery(c *gin.Context) (viewmodel.FilterState, bool, error) {
	search, hasSearch := c.GetQuery("search")
	group, hasGroup := c.GetQuery("group")
	featured, hasFeatured := c.GetQuery("featured")
	if !hasSearch && !hasGroup && !hasFeatured {
		return viewmodel.FilterState{}, false, nil
	}

	req := filterRequest{Search: search, Featured: featured}
	if group != "" {
		id, err := strconv.ParseInt(group, 10, 64)
		if err != nil {
			return viewmodel.FilterState{}, true, err
		}
		req.GroupID = &id
	}
	f, err := req.toState()
	return f, true, err
}

// sortFromQuery reads ?sort=&dir=. The direction defaults to ascending so
// that repeating a request never flips it.
func sortFromQuery(c *gin.Context) (viewmodel.SortState, bool, error) {
	raw := c.Query("sort")
	if raw == "" {
		return viewmodel.SortState{}, false, nil
	}
	field, err := viewmodel.ParseSortField(raw)
	if err != nil {
		return viewmodel.SortState{}, true, err
	}
	dir := viewmodel.Ascending
	if rawDir := c.Query("dir"); rawDir != "" {
		if dir, err = viewmodel.ParseDirection(rawDir); err != nil {
			return viewmodel.SortState{}, true, err
		}
	}
	return viewmodel.SortState{Field: field, Direction: dir}, true, nil
}

// ListEvents returns the current page. Query parameters apply the same
// transitions as the view endpoints: a filter first, then sort, then page.
func (s *Server) ListEvents(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	f, hasFilter, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if hasFilter {
		if _, err := d.SetFilter(ctx, f); err != nil && !d.Loaded() {
			respondError(c, err)
			return
		}
	}
	sort, hasSort, err := sortFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if hasSort {
		_, _ = d.SetSort(ctx, sort)
	}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
			return
		}
		_, _ = d.SetPage(ctx, page)
	}

	v, err := d.View(ctx)
	s.respondView(c, d, v, err)
}

func (s *Server) SetFilter(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := req.toState()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	v, err := d.SetFilter(c.Request.Context(), f)
	s.respondView(c, d, v, err)
}

// SetSort sorts by the given field. Without a direction it toggles like a
// click on the column header.
func (s *Server) SetSort(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	field, err := viewmodel.ParseSortField(req.Field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var v viewmodel.View
	if req.Direction == "" {
		v, err = d.ToggleSort(c.Request.Context(), field)
	} else {
		dir, perr := viewmodel.ParseDirection(req.Direction)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": perr.Error()})
			return
		}
		v, err = d.SetSort(c.Request.Context(), viewmodel.SortState{Field: field, Direction: dir})
	}
	s.respondView(c, d, v, err)
}

func (s *Server) SetPage(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	v, err := d.SetPage(c.Request.Context(), req.Page)
	s.respondView(c, d, v, err)
}

func (s *Server) NextPage(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	v, err := d.Next(c.Request.Context())
	s.respondView(c, d, v, err)
}

func (s *Server) PrevPage(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	v, err := d.Prev(c.Request.Context())
	s.respondView(c, d, v, err)
}

// Reload refetches events and groups, then recomputes the view.
func (s *Server) Reload(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	if err := d.Load(c.Request.Context()); err != nil {
		v, _ := d.View(c.Request.Context())
		s.respondView(c, d, v, err)
		return
	}
	v, err := d.View(c.Request.Context())
	s.respondView(c, d, v, err)
}

func (s *Server) AdminGroups(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	if _, err := d.View(c.Request.Context()); err != nil && !d.Loaded() {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d.Groups())
}

func (s *Server) GetEvent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	event, err := s.gw.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// respondMutation reports a saved event. A failed refetch after a
// successful save is passed on as a warning.
func (s *Server) respondMutation(c *gin.Context, status int, event models.Event, err error) {
	if err != nil && event.ID == 0 {
		respondError(c, err)
		return
	}
	body := gin.H{"event": event}
	if err != nil {
		body["warning"] = err.Error()
	}
	c.JSON(status, body)
}

func (s *Server) CreateEvent(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	var draft models.EventDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := d.Coordinator().Create(c.Request.Context(), draft)
	s.respondMutation(c, http.StatusCreated, created, err)
}

func (s *Server) UpdateEvent(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var draft models.EventDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := d.Coordinator().Update(c.Request.Context(), id, draft)
	s.respondMutation(c, http.StatusOK, updated, err)
}

// RequestDelete opens the confirmation step; nothing is deleted yet.
func (s *Server) RequestDelete(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, err := d.View(c.Request.Context()); err != nil && !d.Loaded() {
		respondError(c, err)
		return
	}
	conf, err := d.Coordinator().RequestDelete(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conf)
}

func (s *Server) PendingDelete(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	conf, ok := d.Coordinator().Pending()
	if !ok {
		respondError(c, coordinator.ErrNoPendingDelete)
		return
	}
	c.JSON(http.StatusOK, conf)
}

func (s *Server) CancelDelete(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	d.Coordinator().CancelDelete()
	c.Status(http.StatusNoContent)
}

// ConfirmDelete deletes the pending event and returns the updated page.
func (s *Server) ConfirmDelete(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	deleted, err := d.Coordinator().ConfirmDelete(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	v, err := d.View(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"deleted": deleted,
		"view":    v,
		"table":   render.Project(v),
		"warning": errString(err),
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
