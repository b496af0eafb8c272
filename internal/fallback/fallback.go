// Package fallback reads the static events.json file shipped with the site.
// It is only consulted when the hosted backend cannot be reached.
package fallback

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"communityhub-backend/internal/models"

	"github.com/gosimple/slug"
)

type fileEvent struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Date        string  `json:"date"`
	Time        *string `json:"time"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	IsFeatured  bool    `json:"is_featured"`
}

type fileGroup struct {
	ID     any         `json:"id"`
	Name   string      `json:"name"`
	Events []fileEvent `json:"events"`
}

// Parse accepts either a bare array of groups or {"groups": [...]}.
func Parse(data []byte) ([]models.GroupWithEvents, error) {
	var groups []fileGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		var wrapped struct {
			Groups []fileGroup `json:"groups"`
		}
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("parse fallback events: %w", err)
		}
		groups = wrapped.Groups
	}

	out := make([]models.GroupWithEvents, 0, len(groups))
	for i, fg := range groups {
		g := models.Group{ID: int64(i + 1), Name: fg.Name}
		switch id := fg.ID.(type) {
		case float64:
			g.ID = int64(id)
		case string:
			if n, err := strconv.ParseInt(id, 10, 64); err == nil {
				g.ID = n
			} else {
				g.Slug = slug.Make(id)
			}
		}
		if g.Name == "" && g.Slug != "" {
			g.Name = g.Slug
		}
		g = g.WithSlug()

		events := make([]models.Event, 0, len(fg.Events))
		for _, fe := range fg.Events {
			start := fe.StartTime
			if start == nil {
				start = fe.Time
			}
			events = append(events, models.Event{
				ID:          fe.ID,
				Title:       fe.Title,
				Date:        fe.Date,
				StartTime:   start,
				EndTime:     fe.EndTime,
				Location:    fe.Location,
				Description: fe.Description,
				ImageURL:    fe.ImageURL,
				GroupID:     g.ID,
				GroupName:   g.Name,
				IsFeatured:  fe.IsFeatured,
			})
		}
		out = append(out, models.GroupWithEvents{Group: g, Events: events})
	}
	return out, nil
}

// watched caches a parsed file and reparses it when it changes on disk.
type watched[T any] struct {
	path  string
	parse func([]byte) (T, error)

	mu      sync.Mutex
	loaded  bool
	modTime time.Time
	value   T
}

func (w *watched[T]) load() (T, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var zero T
	info, err := os.Stat(w.path)
	if err != nil {
		return zero, fmt.Errorf("stat fallback file: %w", err)
	}
	if w.loaded && info.ModTime().Equal(w.modTime) {
		return w.value, nil
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		return zero, fmt.Errorf("read fallback file: %w", err)
	}
	value, err := w.parse(data)
	if err != nil {
		return zero, err
	}
	w.value, w.modTime, w.loaded = value, info.ModTime(), true
	return value, nil
}

// Source serves the events file.
type Source struct {
	file watched[[]models.GroupWithEvents]
}

func NewSource(path string) *Source {
	return &Source{file: watched[[]models.GroupWithEvents]{path: path, parse: Parse}}
}

func (s *Source) Path() string { return s.file.path }

func (s *Source) Load() ([]models.GroupWithEvents, error) {
	return s.file.load()
}

// Upcoming flattens the file's events that fall on or after today, soonest
// first.
func Upcoming(groups []models.GroupWithEvents, today time.Time) []models.Event {
	var out []models.Event
	for _, g := range groups {
		for _, e := range g.Events {
			if e.IsUpcoming(today) {
				out = append(out, e)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b models.Event) int {
		da, _ := a.ParsedDate()
		db, _ := b.ParsedDate()
		return da.Compare(db)
	})
	return out
}
