package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"communityhub-backend/internal/calendar"
	"communityhub-backend/internal/fallback"
	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	sourceLive     = "live"
	sourceFallback = "fallback"
)

// pickFeatured keeps the featured events, or the first limit events when
// none is featured. events must be upcoming and sorted by date.
func pickFeatured(events []models.Event, limit int) []models.Event {
	var featured []models.Event
	for _, e := range events {
		if e.IsFeatured {
			featured = append(featured, e)
		}
	}
	if len(featured) > 0 {
		return featured
	}
	if limit > 0 && len(events) > limit {
		return events[:limit]
	}
	return events
}

// assignToGroups attaches each event to its group by id, or by name when
// the ids do not line up.
func assignToGroups(groups []models.Group, events []models.Event) []models.GroupWithEvents {
	out := make([]models.GroupWithEvents, 0, len(groups))
	for _, g := range groups {
		gw := models.GroupWithEvents{Group: g.WithSlug(), Events: []models.Event{}}
		for _, e := range events {
			if e.GroupID == g.ID || (e.GroupName != "" && strings.EqualFold(e.GroupName, g.Name)) {
				gw.Events = append(gw.Events, e)
			}
		}
		out = append(out, gw)
	}
	return out
}

type groupCard struct {
	models.GroupWithEvents
	NextEvent *models.Event `json:"next_event"`
}

func cards(groups []models.GroupWithEvents) []groupCard {
	out := make([]groupCard, 0, len(groups))
	for _, g := range groups {
		card := groupCard{GroupWithEvents: g}
		if len(g.Events) > 0 {
			next := g.Events[0]
			card.NextEvent = &next
		}
		out = append(out, card)
	}
	return out
}

func (s *Server) liveFeatured(ctx context.Context, today string) ([]models.GroupWithEvents, error) {
	groups, err := s.gw.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.gw.UpcomingEvents(ctx, gateway.UpcomingQuery{From: today, FeaturedOnly: true})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		events, err = s.gw.UpcomingEvents(ctx, gateway.UpcomingQuery{From: today, Limit: s.cfg.Site.FeaturedFallbackLimit})
		if err != nil {
			return nil, err
		}
	}
	return assignToGroups(groups, events), nil
}

func (s *Server) fileFeatured() ([]models.GroupWithEvents, error) {
	groups, err := s.fallback.Load()
	if err != nil {
		return nil, err
	}
	_, today := s.today()
	events := pickFeatured(fallback.Upcoming(groups, today), s.cfg.Site.FeaturedFallbackLimit)

	plain := make([]models.Group, 0, len(groups))
	for _, g := range groups {
		plain = append(plain, g.Group)
	}
	return assignToGroups(plain, events), nil
}

// serveFallback answers from the static events file after the backend
// failed.
func (s *Server) serveFallback(c *gin.Context, cause error, respond func() (any, error)) {
	s.serveFile(c, cause, s.fallback != nil, respond)
}

func (s *Server) serveFile(c *gin.Context, cause error, available bool, respond func() (any, error)) {
	if !available {
		respondError(c, cause)
		return
	}
	body, err := respond()
	if err != nil {
		s.log.WithError(err).Error("Fallback file unavailable")
		respondError(c, cause)
		return
	}
	s.metrics.IncFallback()
	if cause != nil {
		s.log.WithError(cause).Warn("Serving from fallback file")
	}
	c.JSON(http.StatusOK, body)
}

// FeaturedEvents lists groups with their featured upcoming events for the
// home page cards.
func (s *Server) FeaturedEvents(c *gin.Context) {
	today, _ := s.today()

	var cause error = errBackendDown
	if s.backendUp() {
		groups, err := s.liveFeatured(c.Request.Context(), today)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"source": sourceLive, "groups": cards(groups)})
			return
		}
		cause = err
	}

	s.serveFallback(c, cause, func() (any, error) {
		groups, err := s.fileFeatured()
		if err != nil {
			return nil, err
		}
		return gin.H{"source": sourceFallback, "groups": cards(groups)}, nil
	})
}

func (s *Server) ListGroups(c *gin.Context) {
	var cause error = errBackendDown
	if s.backendUp() {
		groups, err := s.gw.ListGroups(c.Request.Context())
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"source": sourceLive, "groups": groups})
			return
		}
		cause = err
	}

	s.serveFallback(c, cause, func() (any, error) {
		file, err := s.fallback.Load()
		if err != nil {
			return nil, err
		}
		groups := make([]models.Group, 0, len(file))
		for _, g := range file {
			groups = append(groups, g.Group)
		}
		return gin.H{"source": sourceFallback, "groups": groups}, nil
	})
}

// GroupEvents lists the upcoming events of one group, soonest first.
func (s *Server) GroupEvents(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}
	today, todayDate := s.today()

	var cause error = errBackendDown
	if s.backendUp() {
		events, err := s.gw.UpcomingEvents(c.Request.Context(), gateway.UpcomingQuery{From: today, GroupID: &id})
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"source": sourceLive, "events": nonNil(events)})
			return
		}
		cause = err
	}

	s.serveFallback(c, cause, func() (any, error) {
		file, err := s.fallback.Load()
		if err != nil {
			return nil, err
		}
		events := []models.Event{}
		for _, e := range fallback.Upcoming(file, todayDate) {
			if e.GroupID == id {
				events = append(events, e)
			}
		}
		return gin.H{"source": sourceFallback, "events": events}, nil
	})
}

// Calendar serves upcoming events as an iCalendar feed.
func (s *Server) Calendar(c *gin.Context) {
	today, todayDate := s.today()

	var events []models.Event
	var err error = errBackendDown
	if s.backendUp() {
		events, err = s.gw.UpcomingEvents(c.Request.Context(), gateway.UpcomingQuery{From: today})
	}
	if err != nil && s.fallback != nil {
		s.log.WithError(err).Warn("Building calendar from fallback file")
		file, ferr := s.fallback.Load()
		if ferr != nil {
			respondError(c, err)
			return
		}
		events = fallback.Upcoming(file, todayDate)
		s.metrics.IncFallback()
	} else if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/calendar; charset=utf-8")
	c.Header("Content-Disposition", `inline; filename="events.ics"`)
	c.Status(http.StatusOK)
	if err := calendar.Write(c.Writer, s.cfg.Site.CalendarName, events, s.cfg.Location(), s.now()); err != nil {
		s.log.WithError(err).Error("Failed to write calendar")
	}
}

func nonNil(events []models.Event) []models.Event {
	if events == nil {
		return []models.Event{}
	}
	return events
}
