package rest

import (
	"context"
	"fmt"
	"time"

	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/models"
	"communityhub-backend/internal/supabase"
)

const resourceColumns = "*,category:resource_categories(name,icon)"

var _ gateway.Resources = (*Gateway)(nil)

type resourceRow struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	CategoryID  int64             `json:"category_id"`
	Location    *string           `json:"location"`
	Website     *string           `json:"website"`
	Contact     models.Contact    `json:"contact"`
	Hours       map[string]string `json:"hours"`
	Tags        []string          `json:"tags"`
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Category    *struct {
		Name string `json:"name"`
		Icon string `json:"icon"`
	} `json:"category"`
}

func (r resourceRow) toModel() models.Resource {
	res := models.Resource{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		Location:    r.Location,
		Website:     r.Website,
		Contact:     r.Contact,
		Hours:       r.Hours,
		Tags:        r.Tags,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Category != nil {
		res.CategoryName = r.Category.Name
		res.CategoryIcon = r.Category.Icon
	}
	return res.WithDefaults()
}

type resourcePayload struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	CategoryID  int64             `json:"category_id"`
	Location    *string           `json:"location"`
	Website     *string           `json:"website"`
	Contact     models.Contact    `json:"contact"`
	Hours       map[string]string `json:"hours"`
	Tags        []string          `json:"tags"`
	IsActive    bool              `json:"is_active"`
}

func resourcePayloadFrom(d models.ResourceDraft) resourcePayload {
	return resourcePayload{
		Name:        d.Name,
		Description: d.Description,
		CategoryID:  d.CategoryID,
		Location:    d.Location,
		Website:     d.Website,
		Contact:     d.Contact,
		Hours:       d.Hours,
		Tags:        d.Tags,
		IsActive:    d.IsActive,
	}
}

func (g *Gateway) ListCategories(ctx context.Context, includeInactive bool) ([]models.ResourceCategory, error) {
	query := g.client.From("resource_categories").Select("id,name,icon,is_active")
	if !includeInactive {
		query = query.Eq("is_active", true)
	}
	res := query.Order("name", true).Execute(ctx)

	categories, err := supabase.Decode[[]models.ResourceCategory](res).Unwrap()
	if err != nil {
		return nil, classifyAs(resourceSubject, "list categories", err)
	}
	return categories, nil
}

func (g *Gateway) ListResources(ctx context.Context, q gateway.ResourceQuery) ([]models.Resource, error) {
	query := g.client.From("resources").Select(resourceColumns)
	if !q.IncludeInactive {
		query = query.Eq("is_active", true)
	}
	if q.CategoryID != nil {
		query = query.Eq("category_id", *q.CategoryID)
	}
	res := query.Order("name", true).Execute(ctx)

	rows, err := supabase.Decode[[]resourceRow](res).Unwrap()
	if err != nil {
		return nil, classifyAs(resourceSubject, "list resources", err)
	}
	out := make([]models.Resource, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (g *Gateway) GetResource(ctx context.Context, id int64) (models.Resource, error) {
	res := g.client.From("resources").
		Select(resourceColumns).
		Eq("id", id).
		Single().
		Execute(ctx)

	row, err := supabase.Decode[resourceRow](res).Unwrap()
	if err != nil {
		return models.Resource{}, classifyAs(resourceSubject, "get resource", err)
	}
	return row.toModel(), nil
}

func (g *Gateway) CreateResource(ctx context.Context, draft models.ResourceDraft) (models.Resource, error) {
	res := g.client.From("resources").
		Insert(resourcePayloadFrom(draft)).
		Select(resourceColumns).
		Single().
		Execute(ctx)

	row, err := supabase.Decode[resourceRow](res).Unwrap()
	if err != nil {
		return models.Resource{}, classifyAs(resourceSubject, "create resource", err)
	}
	return row.toModel(), nil
}

func (g *Gateway) UpdateResource(ctx context.Context, id int64, patch models.ResourceDraft) (models.Resource, error) {
	res := g.client.From("resources").
		Update(resourcePayloadFrom(patch)).
		Eq("id", id).
		Select(resourceColumns).
		Single().
		Execute(ctx)

	row, err := supabase.Decode[resourceRow](res).Unwrap()
	if err != nil {
		return models.Resource{}, classifyAs(resourceSubject, "update resource", err)
	}
	return row.toModel(), nil
}

func (g *Gateway) DeleteResource(ctx context.Context, id int64) error {
	res := g.client.From("resources").
		Delete().
		Eq("id", id).
		Select("id").
		Execute(ctx)

	deleted, err := supabase.Decode[[]struct {
		ID int64 `json:"id"`
	}](res).Unwrap()
	if err != nil {
		return classifyAs(resourceSubject, "delete resource", err)
	}
	if len(deleted) == 0 {
		return fmt.Errorf("delete resource %d: %w", id, gateway.ErrNotFound)
	}
	return nil
}
