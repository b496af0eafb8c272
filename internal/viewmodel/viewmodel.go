// Package viewmodel derives the filtered, sorted and paged list of events
// shown in the admin dashboard. Everything here is a pure function of the
// cached events and a State.
package viewmodel

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"communityhub-backend/internal/models"
)

var epoch = time.Unix(0, 0).UTC()

// Matches reports whether e satisfies every active predicate.
func (f FilterState) Matches(e models.Event) bool {
	if f.GroupID != nil && e.GroupID != *f.GroupID {
		return false
	}
	switch f.Featured {
	case FeaturedOnly:
		if !e.IsFeatured {
			return false
		}
	case FeaturedExcluded:
		if e.IsFeatured {
			return false
		}
	}
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(f.Search)
	for _, field := range []string{e.Title, models.Text(e.Description), models.Text(e.Location), e.GroupName} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Filter returns the events matching f, in their original order.
func Filter(events []models.Event, f FilterState) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func sortDate(e models.Event) time.Time {
	if d, ok := e.ParsedDate(); ok {
		return d
	}
	return epoch
}

func compare(field SortField, a, b models.Event) int {
	switch field {
	case SortDate:
		return sortDate(a).Compare(sortDate(b))
	case SortGroup:
		return strings.Compare(strings.ToLower(a.GroupName), strings.ToLower(b.GroupName))
	case SortFeatured:
		switch {
		case a.IsFeatured == b.IsFeatured:
			return 0
		case b.IsFeatured:
			return -1
		}
		return 1
	default:
		return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	}
}

// Sort orders events in place and returns them. Equal keys keep their input
// order in both directions.
func Sort(events []models.Event, s SortState) []models.Event {
	slices.SortStableFunc(events, func(a, b models.Event) int {
		c := compare(s.Field, a, b)
		if s.Direction == Descending {
			return -c
		}
		return c
	})
	return events
}

type View struct {
	Items      []models.Event `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	PageSize   int            `json:"page_size"`
	// Start and End are the 1-based positions of the first and last visible
	// items, both zero when nothing matches.
	Start   int   `json:"start"`
	End     int   `json:"end"`
	HasPrev bool  `json:"has_prev"`
	HasNext bool  `json:"has_next"`
	State   State `json:"state"`
}

// Compute filters, sorts and pages events. The State in the returned View
// carries the clamped page.
func Compute(events []models.Event, s State) View {
	matched := Sort(Filter(events, s.Filter), s.Sort)
	total := len(matched)
	s.Page = ClampPage(s.Page, total)

	lo := min((s.Page-1)*PageSize, total)
	hi := min(s.Page*PageSize, total)

	v := View{
		Items:      matched[lo:hi],
		Total:      total,
		Page:       s.Page,
		TotalPages: TotalPages(total),
		PageSize:   PageSize,
		HasPrev:    s.Page > 1,
		State:      s,
	}
	v.HasNext = s.Page < v.TotalPages
	if hi > lo {
		v.Start = lo + 1
		v.End = hi
	}
	return v
}
