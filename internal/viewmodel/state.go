package viewmodel

import (
	"fmt"
	"strings"
)

// PageSize is fixed; the admin table always shows ten rows.
const PageSize = 10

// Featured is the tri-state featured filter.
type Featured int

const (
	FeaturedAny Featured = iota
	FeaturedOnly
	FeaturedExcluded
)

// ParseFeatured accepts "", "true" and "false", the values of the filter
// dropdown.
func ParseFeatured(raw string) (Featured, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "any", "all":
		return FeaturedAny, nil
	case "true":
		return FeaturedOnly, nil
	case "false":
		return FeaturedExcluded, nil
	}
	return FeaturedAny, fmt.Errorf("invalid featured filter %q", raw)
}

func (f Featured) String() string {
	switch f {
	case FeaturedOnly:
		return "true"
	case FeaturedExcluded:
		return "false"
	}
	return ""
}

func (f Featured) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Featured) UnmarshalText(b []byte) error {
	v, err := ParseFeatured(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// FilterState combines its predicates with AND. Zero values disable a
// predicate.
type FilterState struct {
	Search   string   `json:"search"`
	GroupID  *int64   `json:"group_id"`
	Featured Featured `json:"featured"`
}

type SortField string

const (
	SortTitle    SortField = "title"
	SortDate     SortField = "date"
	SortGroup    SortField = "group"
	SortFeatured SortField = "featured"
)

func ParseSortField(raw string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(raw))); f {
	case SortTitle, SortDate, SortGroup, SortFeatured:
		return f, nil
	}
	return "", fmt.Errorf("invalid sort field %q", raw)
}

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

func ParseDirection(raw string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(raw))); d {
	case Ascending, Descending:
		return d, nil
	}
	return "", fmt.Errorf("invalid sort direction %q", raw)
}

type SortState struct {
	Field     SortField `json:"field"`
	Direction Direction `json:"direction"`
}

// State is everything the admin list needs besides the cached events.
// Transitions return a new State; none of them touch the cache.
type State struct {
	Filter FilterState `json:"filter"`
	Sort   SortState   `json:"sort"`
	Page   int         `json:"page"`
}

// DefaultState sorts by date, soonest first, on page one.
func DefaultState() State {
	return State{
		Sort: SortState{Field: SortDate, Direction: Ascending},
		Page: 1,
	}
}

// Equal compares group ids by value.
func (f FilterState) Equal(o FilterState) bool {
	if f.Search != o.Search || f.Featured != o.Featured {
		return false
	}
	if f.GroupID == nil || o.GroupID == nil {
		return f.GroupID == nil && o.GroupID == nil
	}
	return *f.GroupID == *o.GroupID
}

// WithFilter replaces the filter and goes back to the first page. An
// unchanged filter keeps the page.
func (s State) WithFilter(f FilterState) State {
	if s.Filter.Equal(f) {
		return s
	}
	s.Filter = f
	s.Page = 1
	return s
}

// NextDirection is the direction a click on field's header selects.
func (s SortState) NextDirection(field SortField) Direction {
	if s.Field == field && s.Direction == Ascending {
		return Descending
	}
	return Ascending
}

// WithSort replaces the sort and keeps the page.
func (s State) WithSort(sort SortState) State {
	s.Sort = sort
	return s
}

// ToggleSort flips the direction when field is already the sort field, and
// otherwise sorts by field ascending. The page is kept.
func (s State) ToggleSort(field SortField) State {
	if s.Sort.Field == field {
		if s.Sort.Direction == Ascending {
			s.Sort.Direction = Descending
		} else {
			s.Sort.Direction = Ascending
		}
		return s
	}
	s.Sort = SortState{Field: field, Direction: Ascending}
	return s
}

// WithPage moves to page, clamped against total matching events.
func (s State) WithPage(page, total int) State {
	s.Page = ClampPage(page, total)
	return s
}

func (s State) Next(total int) State {
	return s.WithPage(s.Page+1, total)
}

func (s State) Prev(total int) State {
	return s.WithPage(s.Page-1, total)
}

// TotalPages is never less than one, so an empty list still has a page.
func TotalPages(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + PageSize - 1) / PageSize
}

func ClampPage(page, total int) int {
	if page < 1 {
		return 1
	}
	if last := TotalPages(total); page > last {
		return last
	}
	return page
}
