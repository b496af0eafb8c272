// Package rest implements the gateway over Supabase's PostgREST API.
package rest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/models"
	"communityhub-backend/internal/supabase"
)

const eventColumns = "*,groups(name)"

type Gateway struct {
	client *supabase.Client
}

var _ gateway.Gateway = (*Gateway)(nil)

func New(client *supabase.Client) *Gateway {
	return &Gateway{client: client}
}

type eventRow struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	StartTime   *string   `json:"start_time"`
	EndTime     *string   `json:"end_time"`
	Location    *string   `json:"location"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"image_url"`
	GroupID     int64     `json:"group_id"`
	IsFeatured  bool      `json:"is_featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Groups      *struct {
		Name string `json:"name"`
	} `json:"groups"`
}

func (r eventRow) toModel() models.Event {
	groupName := models.UnknownGroup
	if r.Groups != nil && r.Groups.Name != "" {
		groupName = r.Groups.Name
	}
	return models.Event{
		ID:          r.ID,
		Title:       r.Title,
		Date:        r.Date,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Location:    r.Location,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		GroupID:     r.GroupID,
		GroupName:   groupName,
		IsFeatured:  r.IsFeatured,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// eventPayload is the writable column set; nil pointers clear the column.
type eventPayload struct {
	Title       string  `json:"title"`
	Date        string  `json:"date"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	GroupID     int64   `json:"group_id"`
	IsFeatured  bool    `json:"is_featured"`
}

func payloadFrom(d models.EventDraft) eventPayload {
	return eventPayload{
		Title:       d.Title,
		Date:        d.Date,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		Location:    d.Location,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		GroupID:     d.GroupID,
		IsFeatured:  d.IsFeatured,
	}
}

func toModels(rows []eventRow) []models.Event {
	events := make([]models.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toModel())
	}
	return events
}

func (g *Gateway) ListEvents(ctx context.Context) ([]models.Event, error) {
	res := g.client.From("events").
		Select(eventColumns).
		Order("date", false).
		Execute(ctx)

	rows, err := supabase.Decode[[]eventRow](res).Unwrap()
	if err != nil {
		return nil, classify("list events", err)
	}
	return toModels(rows), nil
}

func (g *Gateway) ListGroups(ctx context.Context) ([]models.Group, error) {
	res := g.client.From("groups").
		Select("id,name").
		Order("name", true).
		Execute(ctx)

	groups, err := supabase.Decode[[]models.Group](res).Unwrap()
	if err != nil {
		return nil, classify("list groups", err)
	}
	for i := range groups {
		groups[i] = groups[i].WithSlug()
	}
	return groups, nil
}

func (g *Gateway) GetEvent(ctx context.Context, id int64) (models.Event, error) {
	res := g.client.From("events").
		Select(eventColumns).
		Eq("id", id).
		Single().
		Execute(ctx)

	row, err := supabase.Decode[eventRow](res).Unwrap()
	if err != nil {
		return models.Event{}, classify("get event", err)
	}
	return row.toModel(), nil
}

func (g *Gateway) CreateEvent(ctx context.Context, draft models.EventDraft) (models.Event, error) {
	res := g.client.From("events").
		Insert(payloadFrom(draft)).
		Select(eventColumns).
		Single().
		Execute(ctx)

	row, err := supabase.Decode[eventRow](res).Unwrap()
	if err != nil {
		return models.Event{}, classify("create event", err)
	}
	return row.toModel(), nil
}

func (g *Gateway) UpdateEvent(ctx context.Context, id int64, patch models.EventDraft) (models.Event, error) {
	res := g.client.From("events").
		Update(payloadFrom(patch)).
		Eq("id", id).
		Select(eventColumns).
		Single().
		Execute(ctx)

	row, err := supabase.Decode[eventRow](res).Unwrap()
	if err != nil {
		return models.Event{}, classify("update event", err)
	}
	return row.toModel(), nil
}

func (g *Gateway) DeleteEvent(ctx context.Context, id int64) error {
	res := g.client.From("events").
		Delete().
		Eq("id", id).
		Select("id").
		Execute(ctx)

	deleted, err := supabase.Decode[[]struct {
		ID int64 `json:"id"`
	}](res).Unwrap()
	if err != nil {
		return classify("delete event", err)
	}
	if len(deleted) == 0 {
		return fmt.Errorf("delete event %d: %w", id, gateway.ErrNotFound)
	}
	return nil
}

func (g *Gateway) UpcomingEvents(ctx context.Context, q gateway.UpcomingQuery) ([]models.Event, error) {
	query := g.client.From("events").
		Select(eventColumns).
		Gte("date", q.From)
	if q.GroupID != nil {
		query = query.Eq("group_id", *q.GroupID)
	}
	if q.FeaturedOnly {
		query = query.Eq("is_featured", true)
	}
	query = query.Order("date", true)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	rows, err := supabase.Decode[[]eventRow](query.Execute(ctx)).Unwrap()
	if err != nil {
		return nil, classify("list upcoming events", err)
	}
	return toModels(rows), nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	res := g.client.From("groups").Select("id").Limit(1).Execute(ctx)
	if err := res.Err(); err != nil {
		return classify("ping", err)
	}
	return nil
}

// subject names the record kind and its foreign key for validation errors.
type subject struct {
	name     string
	fkField  string
	fkReason string
}

var (
	eventSubject    = subject{"event", "group_id", "Selected group does not exist"}
	resourceSubject = subject{"resource", "category_id", "Selected category does not exist"}
)

// classify maps PostgREST errors onto the gateway error classes.
func classify(op string, err error) error {
	return classifyAs(eventSubject, op, err)
}

func classifyAs(sub subject, op string, err error) error {
	var sbErr *supabase.SupabaseError
	if errors.As(err, &sbErr) {
		if sbErr.IsNotFound() {
			return fmt.Errorf("%s: %w", op, gateway.ErrNotFound)
		}
		if sbErr.IsValidation() {
			return validationFor(sub, sbErr)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func validationFor(sub subject, e *supabase.SupabaseError) *gateway.ValidationError {
	switch e.Code {
	case "23503":
		return gateway.NewValidationError(sub.fkField, sub.fkReason)
	case "22007", "22008":
		return gateway.NewValidationError("date", "Please enter a valid date")
	default:
		return gateway.NewValidationError(sub.name, e.Message)
	}
}
