package postgres

import (
	"context"
	"fmt"

	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const resourceSelect = `
	SELECT r.id, r.name, r.description, r.category_id, COALESCE(c.name, ''), COALESCE(c.icon, ''),
		   r.location, r.website, r.contact, r.hours, r.tags, r.is_active, r.created_at, r.updated_at
	FROM %s r
	LEFT JOIN resource_categories c ON c.id = r.category_id`

var _ gateway.Resources = (*Gateway)(nil)

func scanResource(row pgx.Row) (models.Resource, error) {
	var r models.Resource
	err := row.Scan(
		&r.ID, &r.Name, &r.Description, &r.CategoryID, &r.CategoryName, &r.CategoryIcon,
		&r.Location, &r.Website, &r.Contact, &r.Hours, &r.Tags, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return models.Resource{}, err
	}
	return r.WithDefaults(), nil
}

func (g *Gateway) ListCategories(ctx context.Context, includeInactive bool) ([]models.ResourceCategory, error) {
	rows, err := g.db.Query(ctx, `
		SELECT id, name, icon, is_active FROM resource_categories
		WHERE $1 OR is_active
		ORDER BY name`, includeInactive)
	if err != nil {
		return nil, classifyAs(resourceSubject, "list categories", err)
	}
	defer rows.Close()

	var categories []models.ResourceCategory
	for rows.Next() {
		var c models.ResourceCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.IsActive); err != nil {
			return nil, classifyAs(resourceSubject, "list categories", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyAs(resourceSubject, "list categories", err)
	}
	return categories, nil
}

func (g *Gateway) ListResources(ctx context.Context, q gateway.ResourceQuery) ([]models.Resource, error) {
	query := fmt.Sprintf(resourceSelect, "resources") + `
		WHERE ($1 OR r.is_active)
		  AND ($2::bigint IS NULL OR r.category_id = $2)
		ORDER BY r.name ASC, r.id ASC`

	rows, err := g.db.Query(ctx, query, q.IncludeInactive, q.CategoryID)
	if err != nil {
		return nil, classifyAs(resourceSubject, "list resources", err)
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, classifyAs(resourceSubject, "list resources", err)
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyAs(resourceSubject, "list resources", err)
	}
	return resources, nil
}

func (g *Gateway) GetResource(ctx context.Context, id int64) (models.Resource, error) {
	query := fmt.Sprintf(resourceSelect, "resources") + ` WHERE r.id = $1`

	r, err := scanResource(g.db.QueryRow(ctx, query, id))
	if err != nil {
		return models.Resource{}, classifyAs(resourceSubject, "get resource", err)
	}
	return r, nil
}

func (g *Gateway) CreateResource(ctx context.Context, d models.ResourceDraft) (models.Resource, error) {
	query := `
		WITH ins AS (
			INSERT INTO resources (name, description, category_id, location, website, contact, hours, tags, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING *
		)` + fmt.Sprintf(resourceSelect, "ins")

	r, err := scanResource(g.db.QueryRow(ctx, query,
		d.Name, d.Description, d.CategoryID, d.Location, d.Website, d.Contact, d.Hours, d.Tags, d.IsActive,
	))
	if err != nil {
		return models.Resource{}, classifyAs(resourceSubject, "create resource", err)
	}
	return r, nil
}

func (g *Gateway) UpdateResource(ctx context.Context, id int64, d models.ResourceDraft) (models.Resource, error) {
	query := `
		WITH upd AS (
			UPDATE resources
			SET name = $1, description = $2, category_id = $3, location = $4, website = $5,
				contact = $6, hours = $7, tags = $8, is_active = $9, updated_at = NOW()
			WHERE id = $10
			RETURNING *
		)` + fmt.Sprintf(resourceSelect, "upd")

	r, err := scanResource(g.db.QueryRow(ctx, query,
		d.Name, d.Description, d.CategoryID, d.Location, d.Website, d.Contact, d.Hours, d.Tags, d.IsActive, id,
	))
	if err != nil {
		return models.Resource{}, classifyAs(resourceSubject, "update resource", err)
	}
	return r, nil
}

func (g *Gateway) DeleteResource(ctx context.Context, id int64) error {
	tag, err := g.db.Exec(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return classifyAs(resourceSubject, "delete resource", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete resource %d: %w", id, gateway.ErrNotFound)
	}
	return nil
}
