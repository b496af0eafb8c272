package models

import (
	"strings"
	"time"
)

// Fallbacks for resources whose category could not be joined.
const (
	UnknownCategory = "Unknown"
	DefaultIcon     = "📍"
)

type ResourceCategory struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	IsActive bool   `json:"is_active"`
}

type Contact struct {
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty"`
}

// Resource is an entry of the community resource directory.
type Resource struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	CategoryID   int64             `json:"category_id"`
	CategoryName string            `json:"category_name"`
	CategoryIcon string            `json:"category_icon"`
	Location     *string           `json:"location"`
	Website      *string           `json:"website"`
	Contact      Contact           `json:"contact"`
	Hours        map[string]string `json:"hours"`
	Tags         []string          `json:"tags"`
	IsActive     bool              `json:"is_active"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ResourceDraft is what the admin form submits for a create or update.
type ResourceDraft struct {
	Name        string            `json:"name" validate:"required,max=255"`
	CategoryID  int64             `json:"category_id" validate:"required,gt=0"`
	Description string            `json:"description" validate:"required"`
	Location    *string           `json:"location"`
	Website     *string           `json:"website" validate:"omitempty,url"`
	Contact     Contact           `json:"contact"`
	Hours       map[string]string `json:"hours"`
	Tags        []string          `json:"tags"`
	IsActive    bool              `json:"is_active"`
}

// Normalize trims free text, drops blank hours and tags, and turns blank
// optional fields into nil.
func (d ResourceDraft) Normalize() ResourceDraft {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Location = blankToNil(d.Location)
	d.Website = blankToNil(d.Website)
	d.Contact.Email = blankToNil(d.Contact.Email)
	d.Contact.Phone = blankToNil(d.Contact.Phone)

	hours := make(map[string]string, len(d.Hours))
	for day, h := range d.Hours {
		if h = strings.TrimSpace(h); h != "" {
			hours[strings.ToLower(strings.TrimSpace(day))] = h
		}
	}
	d.Hours = hours

	tags := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	d.Tags = tags
	return d
}

// WithDefaults fills in the display fallbacks and never-nil collections.
func (r Resource) WithDefaults() Resource {
	if r.CategoryName == "" {
		r.CategoryName = UnknownCategory
	}
	if r.CategoryIcon == "" {
		r.CategoryIcon = DefaultIcon
	}
	if r.Hours == nil {
		r.Hours = map[string]string{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r
}

// ResourceDirectory is the public resource listing.
type ResourceDirectory struct {
	Categories []ResourceCategory `json:"categories"`
	Resources  []Resource         `json:"resources"`
}
