package models

import "github.com/gosimple/slug"

type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// WithSlug fills in the slug used for the group's page on the static site.
func (g Group) WithSlug() Group {
	if g.Slug == "" {
		g.Slug = slug.Make(g.Name)
	}
	return g
}

// GroupWithEvents is a group together with the events shown on its card.
type GroupWithEvents struct {
	Group
	Events []Event `json:"events"`
}
