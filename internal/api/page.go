package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"communityhub-backend/internal/coordinator"
	"communityhub-backend/internal/dashboard"
	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/models"
	"communityhub-backend/internal/render"
	"communityhub-backend/internal/viewmodel"

	"github.com/gin-gonic/gin"
)

// writePage renders the admin page for the session's current view.
func (s *Server) writePage(c *gin.Context, status int, d *dashboard.Dashboard, v viewmodel.View, page render.Page) {
	page.Table = render.Project(v)
	page.State = v.State
	page.Groups = d.Groups()
	page.Busy = d.Coordinator().Phase() == coordinator.Submitting
	if conf, ok := d.Coordinator().Pending(); ok {
		page.Confirm = &render.Confirm{ID: conf.Event.ID, Prompt: conf.Prompt}
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := render.WritePage(c.Writer, page); err != nil {
		s.log.WithError(err).Error("Failed to render admin page")
	}
}

func redirectToList(c *gin.Context, key, msg string) {
	target := "/admin/events"
	if msg != "" {
		target += "?" + url.Values{key: {msg}}.Encode()
	}
	c.Redirect(http.StatusSeeOther, target)
}

func draftFromForm(c *gin.Context) models.EventDraft {
	gid, _ := strconv.ParseInt(c.PostForm("group_id"), 10, 64)
	return models.EventDraft{
		Title:       c.PostForm("title"),
		Date:        c.PostForm("date"),
		StartTime:   models.StringPtr(c.PostForm("start_time")),
		EndTime:     models.StringPtr(c.PostForm("end_time")),
		Location:    models.StringPtr(c.PostForm("location")),
		Description: models.StringPtr(c.PostForm("description")),
		ImageURL:    models.StringPtr(c.PostForm("image_url")),
		GroupID:     gid,
		IsFeatured:  c.PostForm("is_featured") == "true",
	}
}

func draftFromEvent(e models.Event) models.EventDraft {
	return models.EventDraft{
		Title:       e.Title,
		Date:        e.Date,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    e.Location,
		Description: e.Description,
		ImageURL:    e.ImageURL,
		GroupID:     e.GroupID,
		IsFeatured:  e.IsFeatured,
	}
}

// AdminPage serves the events table. Query parameters drive the same state
// transitions as the JSON API: filter=1 with search/group/featured, sort
// with dir, page, plus new=1 or edit=<id> to open the form.
func (s *Server) AdminPage(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	page := render.Page{Notice: c.Query("notice"), Banner: c.Query("error")}

	if c.Query("filter") != "" {
		f, _, err := filterFromQuery(c)
		if err != nil {
			page.Banner = err.Error()
		} else {
			_, _ = d.SetFilter(ctx, f)
		}
	}
	if sort, ok, err := sortFromQuery(c); ok && err == nil {
		_, _ = d.SetSort(ctx, sort)
	}
	if raw := c.Query("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			_, _ = d.SetPage(ctx, n)
		}
	}

	v, err := d.View(ctx)
	if err != nil {
		page.Banner = err.Error()
	}

	switch {
	case c.Query("new") != "":
		page.Form = &render.Form{Action: "/admin/events", Heading: "Add Event"}
	case c.Query("edit") != "":
		id, _ := strconv.ParseInt(c.Query("edit"), 10, 64)
		if e, found := d.Event(id); found {
			page.Form = &render.Form{
				Action:  "/admin/events/" + strconv.FormatInt(id, 10),
				Heading: "Edit Event",
				Draft:   draftFromEvent(e),
			}
		} else {
			page.Banner = "Event not found"
		}
	}

	s.writePage(c, http.StatusOK, d, v, page)
}

// submitForm shows validation errors inline and everything else as a
// banner.
func (s *Server) submitForm(c *gin.Context, d *dashboard.Dashboard, form *render.Form, err error, notice string) {
	if err == nil {
		redirectToList(c, "notice", notice)
		return
	}

	var vErr *gateway.ValidationError
	if errors.As(err, &vErr) {
		form.Errors = vErr.Fields
		v, _ := d.View(c.Request.Context())
		s.writePage(c, http.StatusUnprocessableEntity, d, v, render.Page{Form: form})
		return
	}
	v, _ := d.View(c.Request.Context())
	s.writePage(c, errorStatus(err), d, v, render.Page{Form: form, Banner: err.Error()})
}

func (s *Server) CreateEventForm(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	draft := draftFromForm(c)
	_, err := d.Coordinator().Create(c.Request.Context(), draft)
	s.submitForm(c, d, &render.Form{Action: "/admin/events", Heading: "Add Event", Draft: draft}, err, "Event created")
}

func (s *Server) UpdateEventForm(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	draft := draftFromForm(c)
	_, err := d.Coordinator().Update(c.Request.Context(), id, draft)
	form := &render.Form{Action: "/admin/events/" + strconv.FormatInt(id, 10), Heading: "Edit Event", Draft: draft}
	s.submitForm(c, d, form, err, "Event updated")
}

func (s *Server) RequestDeleteForm(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	_, _ = d.View(c.Request.Context())
	if _, err := d.Coordinator().RequestDelete(id); err != nil {
		redirectToList(c, "error", err.Error())
		return
	}
	redirectToList(c, "", "")
}

func (s *Server) ConfirmDeleteForm(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	deleted, err := d.Coordinator().ConfirmDelete(c.Request.Context())
	if err != nil {
		redirectToList(c, "error", err.Error())
		return
	}
	redirectToList(c, "notice", `Deleted "`+deleted.Title+`"`)
}

func (s *Server) CancelDeleteForm(c *gin.Context) {
	d, ok := s.session(c)
	if !ok {
		return
	}
	d.Coordinator().CancelDelete()
	redirectToList(c, "", "")
}
