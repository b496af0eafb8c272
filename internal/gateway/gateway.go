// Package gateway defines the contract between the events dashboard and the
// hosted data store, and the error classes every implementation reports.
package gateway

import (
	"context"
	"errors"
	"sort"
	"strings"

	"communityhub-backend/internal/models"
)

// ErrNotFound is returned when the addressed record no longer exists.
var ErrNotFound = errors.New("not found")

// ValidationError lists the offending fields and their messages, keyed by
// the JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// NewValidationError is a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// UpcomingQuery selects events on or after From (YYYY-MM-DD).
type UpcomingQuery struct {
	From         string
	GroupID      *int64
	FeaturedOnly bool
	// Limit of 0 means no limit.
	Limit int
}

// Gateway is the remote data store for events and groups. Every method may
// fail with a transport error, a *ValidationError or ErrNotFound; a failed
// call has no effect on the caller's state.
type Gateway interface {
	// ListEvents returns every event with GroupName filled in.
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	GetEvent(ctx context.Context, id int64) (models.Event, error)
	CreateEvent(ctx context.Context, draft models.EventDraft) (models.Event, error)
	UpdateEvent(ctx context.Context, id int64, patch models.EventDraft) (models.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
	// UpcomingEvents is ordered by date ascending.
	UpcomingEvents(ctx context.Context, q UpcomingQuery) ([]models.Event, error)
	// Ping issues the cheapest possible read.
	Ping(ctx context.Context) error
}

// ResourceQuery selects directory entries. A nil CategoryID selects every
// category.
type ResourceQuery struct {
	CategoryID      *int64
	IncludeInactive bool
}

// Resources is the remote store of the resource directory, with the same
// error classes as Gateway. Listings are ordered by name.
type Resources interface {
	ListCategories(ctx context.Context, includeInactive bool) ([]models.ResourceCategory, error)
	ListResources(ctx context.Context, q ResourceQuery) ([]models.Resource, error)
	GetResource(ctx context.Context, id int64) (models.Resource, error)
	CreateResource(ctx context.Context, draft models.ResourceDraft) (models.Resource, error)
	UpdateResource(ctx context.Context, id int64, patch models.ResourceDraft) (models.Resource, error)
	DeleteResource(ctx context.Context, id int64) error
}

// Store is a backend serving both events and the resource directory.
type Store interface {
	Gateway
	Resources
}
