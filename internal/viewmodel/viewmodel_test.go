package viewmodel

import (
	"fmt"
	"testing"

	"communityhub-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(events []models.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Title)
	}
	return out
}

func sample() []models.Event {
	desc := "Community Hike up the ridge"
	loc := "Library"
	return []models.Event{
		{ID: 1, Title: "Ridge walk", Date: "2025-05-03", Description: &desc, GroupID: 1, GroupName: "Hikers", IsFeatured: true},
		{ID: 2, Title: "book swap", Date: "2025-04-12", Location: &loc, GroupID: 2, GroupName: "Book Club"},
		{ID: 3, Title: "Annual picnic", Date: "not a date", GroupID: 1, GroupName: "Hikers"},
		{ID: 4, Title: "Reading night", Date: "2025-06-20", GroupID: 2, GroupName: "book club", IsFeatured: true},
		{ID: 5, Title: "Cleanup", Date: "", GroupID: 3, GroupName: models.UnknownGroup},
	}
}

func TestSortScenario(t *testing.T) {
	cache := []models.Event{
		{Title: "B", Date: "2025-07-01"},
		{Title: "A", Date: "2025-06-01"},
	}

	v := Compute(cache, State{Sort: SortState{Field: SortTitle, Direction: Ascending}, Page: 1})
	assert.Equal(t, []string{"A", "B"}, titles(v.Items))

	v = Compute(cache, State{Sort: SortState{Field: SortDate, Direction: Descending}, Page: 1})
	assert.Equal(t, []string{"B", "A"}, titles(v.Items))
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	desc := "community hike"
	cache := []models.Event{
		{ID: 1, Title: "Saturday outing", Date: "2025-05-01", Description: &desc},
		{ID: 2, Title: "Quiz", Date: "2025-05-02"},
	}
	for _, term := range []string{"hike", "HIKE", "HiKe"} {
		got := Filter(cache, FilterState{Search: term})
		require.Len(t, got, 1, term)
		assert.EqualValues(t, 1, got[0].ID)
	}
}

func TestSearchCoversLocationAndGroup(t *testing.T) {
	assert.Equal(t, []string{"book swap"}, titles(Filter(sample(), FilterState{Search: "library"})))
	assert.Equal(t, []string{"book swap", "Reading night"}, titles(Filter(sample(), FilterState{Search: "BOOK CLUB"})))
}

func TestFilterPredicatesCombine(t *testing.T) {
	group := int64(2)
	cases := []FilterState{
		{},
		{Search: "r"},
		{GroupID: &group},
		{Featured: FeaturedOnly},
		{Featured: FeaturedExcluded},
		{Search: "r", GroupID: &group, Featured: FeaturedOnly},
		{Search: "nothing matches this"},
	}
	events := sample()
	for i, f := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			got := Filter(events, f)
			assert.LessOrEqual(t, len(got), len(events))
			for _, e := range got {
				assert.True(t, f.Matches(e))
				if f.GroupID != nil {
					assert.Equal(t, *f.GroupID, e.GroupID)
				}
				if f.Featured == FeaturedOnly {
					assert.True(t, e.IsFeatured)
				}
				if f.Featured == FeaturedExcluded {
					assert.False(t, e.IsFeatured)
				}
			}
		})
	}
}

func TestDateSortHandlesInvalidDates(t *testing.T) {
	asc := Sort(sample(), SortState{Field: SortDate, Direction: Ascending})
	assert.Equal(t, []string{"Annual picnic", "Cleanup", "book swap", "Ridge walk", "Reading night"}, titles(asc))

	desc := Sort(sample(), SortState{Field: SortDate, Direction: Descending})
	assert.Equal(t, []string{"Reading night", "Ridge walk", "book swap", "Annual picnic", "Cleanup"}, titles(desc))
}

func TestGroupAndFeaturedSort(t *testing.T) {
	byGroup := Sort(sample(), SortState{Field: SortGroup, Direction: Ascending})
	assert.Equal(t, []string{"book swap", "Reading night", "Ridge walk", "Annual picnic", "Cleanup"}, titles(byGroup))

	byFeatured := Sort(sample(), SortState{Field: SortFeatured, Direction: Ascending})
	assert.Equal(t, []string{"book swap", "Annual picnic", "Cleanup", "Ridge walk", "Reading night"}, titles(byFeatured))
}

func TestTitleSortIgnoresCase(t *testing.T) {
	got := Sort(sample(), SortState{Field: SortTitle, Direction: Ascending})
	assert.Equal(t, []string{"Annual picnic", "book swap", "Cleanup", "Reading night", "Ridge walk"}, titles(got))
}

func manyEvents(n int) []models.Event {
	out := make([]models.Event, n)
	for i := range out {
		out[i] = models.Event{ID: int64(i + 1), Title: fmt.Sprintf("Event %02d", i+1), Date: fmt.Sprintf("2025-01-%02d", i+1)}
	}
	return out
}

func TestPaginationScenario(t *testing.T) {
	events := manyEvents(23)
	s := DefaultState()

	v := Compute(events, s)
	assert.Equal(t, 3, v.TotalPages)
	assert.Equal(t, 1, v.Start)
	assert.Equal(t, 10, v.End)
	assert.Len(t, v.Items, 10)
	assert.False(t, v.HasPrev)
	assert.True(t, v.HasNext)

	v = Compute(events, s.WithPage(3, len(events)))
	assert.Equal(t, 3, v.Page)
	assert.Equal(t, 21, v.Start)
	assert.Equal(t, 23, v.End)
	assert.Equal(t, []string{"Event 21", "Event 22", "Event 23"}, titles(v.Items))
	assert.False(t, v.HasNext)
	assert.True(t, v.HasPrev)
}

func TestPageIsClamped(t *testing.T) {
	events := manyEvents(23)

	for _, page := range []int{-4, 0, 1, 2, 3, 4, 99} {
		v := Compute(events, State{Sort: SortState{Field: SortDate, Direction: Ascending}, Page: page})
		assert.GreaterOrEqual(t, v.Page, 1)
		assert.LessOrEqual(t, v.Page, 3)
	}

	v := Compute(nil, State{Page: 5})
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 1, v.TotalPages)
	assert.Zero(t, v.Start)
	assert.Zero(t, v.End)
	assert.Empty(t, v.Items)
	assert.False(t, v.HasNext)
}

func TestFilterChangeResetsPage(t *testing.T) {
	s := DefaultState().WithPage(3, 23)
	require.Equal(t, 3, s.Page)

	assert.Equal(t, 1, s.WithFilter(FilterState{Search: "event"}).Page)
	assert.Equal(t, 3, s.ToggleSort(SortTitle).Page)
	assert.Equal(t, 3, s.WithSort(SortState{Field: SortGroup, Direction: Descending}).Page)
	assert.Equal(t, 2, s.Prev(23).Page)
	assert.Equal(t, 3, s.Next(23).Page)
}

func TestUnchangedFilterKeepsPage(t *testing.T) {
	group := int64(2)
	s := DefaultState().WithFilter(FilterState{Search: "event", GroupID: &group}).WithPage(2, 23)
	require.Equal(t, 2, s.Page)

	same := int64(2)
	assert.Equal(t, 2, s.WithFilter(FilterState{Search: "event", GroupID: &same}).Page)
	assert.Equal(t, 1, s.WithFilter(FilterState{Search: "event"}).Page)
	assert.Equal(t, 1, s.WithFilter(FilterState{Search: "Event", GroupID: &same}).Page)
}

func TestNextDirection(t *testing.T) {
	s := SortState{Field: SortTitle, Direction: Ascending}
	assert.Equal(t, Descending, s.NextDirection(SortTitle))
	assert.Equal(t, Ascending, s.NextDirection(SortDate))
	s.Direction = Descending
	assert.Equal(t, Ascending, s.NextDirection(SortTitle))
}

func TestSortChangeClampsWhenOutOfRange(t *testing.T) {
	s := DefaultState()
	s.Page = 3
	v := Compute(manyEvents(12), s.ToggleSort(SortTitle))
	assert.Equal(t, 2, v.Page)
	assert.Equal(t, 2, v.State.Page)
}

func TestToggleSort(t *testing.T) {
	s := DefaultState()
	assert.Equal(t, SortState{Field: SortDate, Direction: Descending}, s.ToggleSort(SortDate).Sort)
	assert.Equal(t, SortState{Field: SortDate, Direction: Ascending}, s.ToggleSort(SortDate).ToggleSort(SortDate).Sort)
	assert.Equal(t, SortState{Field: SortTitle, Direction: Ascending}, s.ToggleSort(SortDate).ToggleSort(SortTitle).Sort)
}

func TestParsers(t *testing.T) {
	f, err := ParseFeatured("true")
	require.NoError(t, err)
	assert.Equal(t, FeaturedOnly, f)
	f, err = ParseFeatured("")
	require.NoError(t, err)
	assert.Equal(t, FeaturedAny, f)
	_, err = ParseFeatured("maybe")
	assert.Error(t, err)

	field, err := ParseSortField("Group")
	require.NoError(t, err)
	assert.Equal(t, SortGroup, field)
	_, err = ParseSortField("location")
	assert.Error(t, err)

	dir, err := ParseDirection("DESC")
	require.NoError(t, err)
	assert.Equal(t, Descending, dir)
}
