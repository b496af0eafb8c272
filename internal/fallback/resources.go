package fallback

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"communityhub-backend/internal/models"
)

type fileCategory struct {
	ID   any    `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type fileResource struct {
	ID          any               `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    any               `json:"category"`
	CategoryID  any               `json:"category_id"`
	Location    *string           `json:"location"`
	Website     *string           `json:"website"`
	Contact     models.Contact    `json:"contact"`
	Hours       map[string]string `json:"hours"`
	Tags        []string          `json:"tags"`
}

// numericID returns the integer form of a JSON id, which may be a number
// or a numeric string.
func numericID(v any) (int64, bool) {
	switch id := v.(type) {
	case float64:
		return int64(id), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// ParseResources reads {"categories": [...], "resources": [...]}. Category
// ids may be strings such as "food"; those are numbered by position and
// the resources that reference them are remapped. Entries missing a name
// or description are skipped.
func ParseResources(data []byte) (models.ResourceDirectory, error) {
	var file struct {
		Categories []fileCategory `json:"categories"`
		Resources  []fileResource `json:"resources"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return models.ResourceDirectory{}, fmt.Errorf("parse fallback resources: %w", err)
	}

	ids := make(map[string]int64, len(file.Categories))
	dir := models.ResourceDirectory{
		Categories: make([]models.ResourceCategory, 0, len(file.Categories)),
		Resources:  make([]models.Resource, 0, len(file.Resources)),
	}
	for i, fc := range file.Categories {
		id, ok := numericID(fc.ID)
		if !ok {
			id = int64(i + 1)
		}
		ids[fmt.Sprint(fc.ID)] = id
		icon := fc.Icon
		if icon == "" {
			icon = models.DefaultIcon
		}
		dir.Categories = append(dir.Categories, models.ResourceCategory{ID: id, Name: fc.Name, Icon: icon, IsActive: true})
	}

	for i, fr := range file.Resources {
		if strings.TrimSpace(fr.Name) == "" || strings.TrimSpace(fr.Description) == "" {
			continue
		}
		id, ok := numericID(fr.ID)
		if !ok {
			id = int64(i + 1)
		}
		raw := fr.Category
		if raw == nil {
			raw = fr.CategoryID
		}
		r := models.Resource{
			ID:          id,
			Name:        fr.Name,
			Description: fr.Description,
			CategoryID:  ids[fmt.Sprint(raw)],
			Location:    fr.Location,
			Website:     fr.Website,
			Contact:     fr.Contact,
			Hours:       fr.Hours,
			Tags:        fr.Tags,
			IsActive:    true,
		}
		for _, c := range dir.Categories {
			if c.ID == r.CategoryID {
				r.CategoryName, r.CategoryIcon = c.Name, c.Icon
			}
		}
		dir.Resources = append(dir.Resources, r.WithDefaults())
	}

	slices.SortStableFunc(dir.Categories, func(a, b models.ResourceCategory) int { return strings.Compare(a.Name, b.Name) })
	slices.SortStableFunc(dir.Resources, func(a, b models.Resource) int { return strings.Compare(a.Name, b.Name) })
	return dir, nil
}

// ResourceSource serves the resources file.
type ResourceSource struct {
	file watched[models.ResourceDirectory]
}

func NewResourceSource(path string) *ResourceSource {
	return &ResourceSource{file: watched[models.ResourceDirectory]{path: path, parse: ParseResources}}
}

func (s *ResourceSource) Path() string { return s.file.path }

func (s *ResourceSource) Load() (models.ResourceDirectory, error) {
	return s.file.load()
}

// InCategory keeps the resources of one category; a nil id keeps all.
func InCategory(resources []models.Resource, categoryID *int64) []models.Resource {
	if categoryID == nil {
		return resources
	}
	out := make([]models.Resource, 0, len(resources))
	for _, r := range resources {
		if r.CategoryID == *categoryID {
			out = append(out, r)
		}
	}
	return out
}
