// Package postgres implements the gateway directly over the database pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"communityhub-backend/internal/database"
	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const eventSelect = `
	SELECT e.id, e.title, e.date::text, e.start_time, e.end_time, e.location, e.description, e.image_url,
		   e.group_id, COALESCE(g.name, ''), e.is_featured, e.created_at, e.updated_at
	FROM %s e
	LEFT JOIN groups g ON g.id = e.group_id`

type Gateway struct {
	db *database.Database
}

var _ gateway.Gateway = (*Gateway)(nil)

func New(db *database.Database) *Gateway {
	return &Gateway{db: db}
}

func scanEvent(row pgx.Row) (models.Event, error) {
	var e models.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Date, &e.StartTime, &e.EndTime, &e.Location, &e.Description, &e.ImageURL,
		&e.GroupID, &e.GroupName, &e.IsFeatured, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return models.Event{}, err
	}
	if e.GroupName == "" {
		e.GroupName = models.UnknownGroup
	}
	return e, nil
}

func collectEvents(rows pgx.Rows) ([]models.Event, error) {
	defer rows.Close()
	var events []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (g *Gateway) ListEvents(ctx context.Context) ([]models.Event, error) {
	query := fmt.Sprintf(eventSelect, "events") + ` ORDER BY e.date DESC`

	rows, err := g.db.Query(ctx, query)
	if err != nil {
		return nil, classify("list events", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, classify("list events", err)
	}
	return events, nil
}

func (g *Gateway) ListGroups(ctx context.Context) ([]models.Group, error) {
	rows, err := g.db.Query(ctx, `SELECT id, name FROM groups ORDER BY name`)
	if err != nil {
		return nil, classify("list groups", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var grp models.Group
		if err := rows.Scan(&grp.ID, &grp.Name); err != nil {
			return nil, classify("list groups", err)
		}
		groups = append(groups, grp.WithSlug())
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list groups", err)
	}
	return groups, nil
}

func (g *Gateway) GetEvent(ctx context.Context, id int64) (models.Event, error) {
	query := fmt.Sprintf(eventSelect, "events") + ` WHERE e.id = $1`

	e, err := scanEvent(g.db.QueryRow(ctx, query, id))
	if err != nil {
		return models.Event{}, classify("get event", err)
	}
	return e, nil
}

func (g *Gateway) CreateEvent(ctx context.Context, d models.EventDraft) (models.Event, error) {
	query := `
		WITH ins AS (
			INSERT INTO events (title, date, start_time, end_time, location, description, image_url, group_id, is_featured)
			VALUES ($1, $2::text::date, $3, $4, $5, $6, $7, $8, $9)
			RETURNING *
		)` + fmt.Sprintf(eventSelect, "ins")

	e, err := scanEvent(g.db.QueryRow(ctx, query,
		d.Title, d.Date, d.StartTime, d.EndTime, d.Location, d.Description, d.ImageURL, d.GroupID, d.IsFeatured,
	))
	if err != nil {
		return models.Event{}, classify("create event", err)
	}
	return e, nil
}

func (g *Gateway) UpdateEvent(ctx context.Context, id int64, d models.EventDraft) (models.Event, error) {
	query := `
		WITH upd AS (
			UPDATE events
			SET title = $1, date = $2::text::date, start_time = $3, end_time = $4, location = $5,
				description = $6, image_url = $7, group_id = $8, is_featured = $9, updated_at = NOW()
			WHERE id = $10
			RETURNING *
		)` + fmt.Sprintf(eventSelect, "upd")

	e, err := scanEvent(g.db.QueryRow(ctx, query,
		d.Title, d.Date, d.StartTime, d.EndTime, d.Location, d.Description, d.ImageURL, d.GroupID, d.IsFeatured, id,
	))
	if err != nil {
		return models.Event{}, classify("update event", err)
	}
	return e, nil
}

func (g *Gateway) DeleteEvent(ctx context.Context, id int64) error {
	tag, err := g.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return classify("delete event", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete event %d: %w", id, gateway.ErrNotFound)
	}
	return nil
}

func (g *Gateway) UpcomingEvents(ctx context.Context, q gateway.UpcomingQuery) ([]models.Event, error) {
	query := fmt.Sprintf(eventSelect, "events") + `
		WHERE e.date >= $1::text::date
		  AND ($2::bigint IS NULL OR e.group_id = $2)
		  AND (NOT $3 OR e.is_featured)
		ORDER BY e.date ASC, e.id ASC
		LIMIT NULLIF($4, 0)`

	rows, err := g.db.Query(ctx, query, q.From, q.GroupID, q.FeaturedOnly, q.Limit)
	if err != nil {
		return nil, classify("list upcoming events", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, classify("list upcoming events", err)
	}
	return events, nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.db.Pool.Ping(ctx); err != nil {
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

func classify(op string, err error) error {
	return classifyAs(eventSubject, op, err)
}

func classifyAs(sub subject, op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, gateway.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return gateway.NewValidationError(sub.fkField, sub.fkReason)
		case "22007", "22008":
			return gateway.NewValidationError("date", "Please enter a valid date")
		case "23502", "23514", "22P02":
			field := pgErr.ColumnName
			if field == "" {
				field = sub.name
			}
			return gateway.NewValidationError(field, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
