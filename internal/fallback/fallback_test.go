package fallback

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"communityhub-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wrappedFile = `{
  "groups": [
    {
      "id": "trail-runners",
      "name": "Trail Runners",
      "events": [
        {"title": "Morning run", "date": "2025-06-01", "time": "7:00 AM", "location": "Park"},
        {"title": "Night run", "date": "2025-06-08", "start_time": "20:00", "end_time": "21:00"}
      ]
    },
    {
      "id": 4,
      "name": "Book Club",
      "events": []
    }
  ]
}`

func TestParseWrappedFile(t *testing.T) {
	groups, err := Parse([]byte(wrappedFile))
	require.NoError(t, err)
	require.Len(t, groups, 2)

	runners := groups[0]
	assert.Equal(t, "trail-runners", runners.Slug)
	assert.Equal(t, "Trail Runners", runners.Name)
	require.Len(t, runners.Events, 2)
	assert.Equal(t, "7:00 AM", models.Text(runners.Events[0].StartTime))
	assert.Equal(t, "Trail Runners", runners.Events[0].GroupName)
	assert.Equal(t, runners.ID, runners.Events[0].GroupID)
	assert.Equal(t, "21:00", models.Text(runners.Events[1].EndTime))

	assert.EqualValues(t, 4, groups[1].ID)
	assert.Equal(t, "book-club", groups[1].Slug)
}

func TestParseBareArray(t *testing.T) {
	groups, err := Parse([]byte(`[{"id":"7","name":"Gardeners","events":[{"title":"Seed swap","date":"2025-04-01"}]}]`))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.EqualValues(t, 7, groups[0].ID)
	assert.Equal(t, "Seed swap", groups[0].Events[0].Title)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestSourceReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"name":"A","events":[]}]`), 0o644))

	src := NewSource(path)
	groups, err := src.Load()
	require.NoError(t, err)
	assert.Equal(t, "A", groups[0].Name)

	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"name":"B","events":[]}]`), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime().Add(1e9)))

	groups, err = src.Load()
	require.NoError(t, err)
	assert.Equal(t, "B", groups[0].Name)
}

func TestSourceMissingFile(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "missing.json")).Load()
	assert.Error(t, err)
}

func TestUpcoming(t *testing.T) {
	groups, err := Parse([]byte(wrappedFile))
	require.NoError(t, err)

	today := time.Date(2025, 6, 5, 15, 0, 0, 0, time.UTC)
	got := Upcoming(groups, today)
	require.Len(t, got, 1)
	assert.Equal(t, "Night run", got[0].Title)

	assert.Len(t, Upcoming(groups, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)), 2)
}
