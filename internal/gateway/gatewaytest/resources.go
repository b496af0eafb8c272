package gatewaytest

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/models"
)

var _ gateway.Resources = (*Fake)(nil)

// SeedCategories adds resource categories.
func (f *Fake) SeedCategories(categories ...models.ResourceCategory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories = append(f.categories, categories...)
}

// SeedResources adds resources as if they had been created earlier.
func (f *Fake) SeedResources(resources ...models.Resource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range resources {
		if r.ID == 0 {
			r.ID = f.nextResourceID
		}
		if r.ID >= f.nextResourceID {
			f.nextResourceID = r.ID + 1
		}
		f.resources = append(f.resources, f.withCategory(r))
	}
}

func (f *Fake) withCategory(r models.Resource) models.Resource {
	r.CategoryName, r.CategoryIcon = "", ""
	for _, c := range f.categories {
		if c.ID == r.CategoryID {
			r.CategoryName, r.CategoryIcon = c.Name, c.Icon
		}
	}
	return r.WithDefaults()
}

func (f *Fake) hasCategory(id int64) bool {
	return slices.ContainsFunc(f.categories, func(c models.ResourceCategory) bool { return c.ID == id })
}

func byName(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}

func (f *Fake) ListCategories(ctx context.Context, includeInactive bool) ([]models.ResourceCategory, error) {
	if err := f.enter("categories"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ResourceCategory
	for _, c := range f.categories {
		if includeInactive || c.IsActive {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b models.ResourceCategory) int { return byName(a.Name, b.Name) })
	return out, nil
}

func (f *Fake) ListResources(ctx context.Context, q gateway.ResourceQuery) ([]models.Resource, error) {
	if err := f.enter("resources"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Resource
	for _, r := range f.resources {
		if !q.IncludeInactive && !r.IsActive {
			continue
		}
		if q.CategoryID != nil && r.CategoryID != *q.CategoryID {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b models.Resource) int { return byName(a.Name, b.Name) })
	return out, nil
}

func (f *Fake) GetResource(ctx context.Context, id int64) (models.Resource, error) {
	if err := f.enter("resource_get"); err != nil {
		return models.Resource{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.resources {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Resource{}, fmt.Errorf("get resource %d: %w", id, gateway.ErrNotFound)
}

func (f *Fake) applyResource(r *models.Resource, d models.ResourceDraft) {
	r.Name = d.Name
	r.Description = d.Description
	r.CategoryID = d.CategoryID
	r.Location = d.Location
	r.Website = d.Website
	r.Contact = d.Contact
	r.Hours = d.Hours
	r.Tags = d.Tags
	r.IsActive = d.IsActive
	r.UpdatedAt = time.Now().UTC()
	*r = f.withCategory(*r)
}

func (f *Fake) CreateResource(ctx context.Context, d models.ResourceDraft) (models.Resource, error) {
	if err := f.enter("resource_create"); err != nil {
		return models.Resource{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasCategory(d.CategoryID) {
		return models.Resource{}, gateway.NewValidationError("category_id", "Selected category does not exist")
	}
	r := models.Resource{ID: f.nextResourceID, CreatedAt: time.Now().UTC()}
	f.nextResourceID++
	f.applyResource(&r, d)
	f.resources = append(f.resources, r)
	return r, nil
}

func (f *Fake) UpdateResource(ctx context.Context, id int64, d models.ResourceDraft) (models.Resource, error) {
	if err := f.enter("resource_update"); err != nil {
		return models.Resource{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.resources {
		if f.resources[i].ID == id {
			if !f.hasCategory(d.CategoryID) {
				return models.Resource{}, gateway.NewValidationError("category_id", "Selected category does not exist")
			}
			f.applyResource(&f.resources[i], d)
			return f.resources[i], nil
		}
	}
	return models.Resource{}, fmt.Errorf("update resource %d: %w", id, gateway.ErrNotFound)
}

func (f *Fake) DeleteResource(ctx context.Context, id int64) error {
	if err := f.enter("resource_delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.resources, func(r models.Resource) bool { return r.ID == id })
	if i < 0 {
		return fmt.Errorf("delete resource %d: %w", id, gateway.ErrNotFound)
	}
	f.resources = slices.Delete(f.resources, i, i+1)
	return nil
}
