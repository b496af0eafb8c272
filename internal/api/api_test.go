package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"communityhub-backend/internal/auth"
	"communityhub-backend/internal/config"
	"communityhub-backend/internal/dashboard"
	"communityhub-backend/internal/fallback"
	"communityhub-backend/internal/gateway/gatewaytest"
	"communityhub-backend/internal/logger"
	"communityhub-backend/internal/metrics"
	"communityhub-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "api-test-secret-api-test-secret-api"

const fallbackFile = `[
  {"id": 1, "name": "Hikers", "events": [
    {"title": "Static hike", "date": "2025-06-10", "time": "9:00 AM"},
    {"title": "Old hike", "date": "2024-01-01"}
  ]},
  {"id": 2, "name": "Book Club", "events": [
    {"title": "Static reading", "date": "2025-06-03", "is_featured": true}
  ]}
]`

type testEnv struct {
	router *gin.Engine
	server *Server
	gw     *gatewaytest.Fake
	token  string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(fallbackFile), 0o644))

	cfg := config.New()
	cfg.Site.Timezone = "UTC"
	cfg.Site.FeaturedFallbackLimit = 5
	cfg.Site.CalendarName = "Community Events"
	cfg.Server.CORSOrigins = ""

	gw := gatewaytest.New(models.Group{ID: 1, Name: "Hikers"}, models.Group{ID: 2, Name: "Book Club"})
	log := logger.Discard()
	m := metrics.New()

	s := NewServer(Deps{
		Config:    cfg,
		Gateway:   gw,
		Dashboard: dashboard.NewRegistry(gw, log.WithField("component", "dashboard"), m.ObserveMutation),
		Verifier:  auth.NewVerifier(testSecret, nil),
		Fallback:  fallback.NewSource(path),
		Metrics:   m,
		Log:       log,
	})
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	router := gin.New()
	SetupRoutes(router, s)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Email: "admin@example.org",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	return &testEnv{router: router, server: s, gw: gw, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) form(t *testing.T, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type viewBody struct {
	View struct {
		Items      []models.Event `json:"items"`
		Total      int            `json:"total"`
		Page       int            `json:"page"`
		TotalPages int            `json:"total_pages"`
		HasNext    bool           `json:"has_next"`
	} `json:"view"`
	Table struct {
		Empty string `json:"empty"`
	} `json:"table"`
	Pending *struct {
		Prompt string `json:"prompt"`
	} `json:"pending_delete"`
	Banner string `json:"banner"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAdminRequiresToken(t *testing.T) {
	env := newEnv(t)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/events", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateThenListIncludesEventOnce(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/admin/events", map[string]any{
		"title": "Sunset hike", "date": "2025-07-01", "start_time": "18:00", "group_id": 1, "is_featured": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/admin/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[viewBody](t, w)
	require.Len(t, body.View.Items, 1)
	got := body.View.Items[0]
	assert.Equal(t, "Sunset hike", got.Title)
	assert.Equal(t, "2025-07-01", got.Date)
	assert.Equal(t, "18:00", models.Text(got.StartTime))
	assert.Equal(t, "Hikers", got.GroupName)
	assert.True(t, got.IsFeatured)
}

func TestCreateValidationErrors(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/admin/events", map[string]any{"title": " "})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, w)
	assert.Equal(t, "Please enter a title", body.Fields["title"])
	assert.Equal(t, "Please select a date", body.Fields["date"])
	assert.Equal(t, "Please select a group", body.Fields["group_id"])
	assert.Zero(t, env.gw.Calls("create"))
}

func TestErrorClassesMapToStatus(t *testing.T) {
	env := newEnv(t)
	draft := map[string]any{"title": "X", "date": "2025-07-01", "group_id": 1}

	w := env.do(t, http.MethodPut, "/api/v1/admin/events/99", draft)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.gw.Fail("create", errors.New("connection refused"))
	w = env.do(t, http.MethodPost, "/api/v1/admin/events", draft)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	w = env.do(t, http.MethodPost, "/api/v1/admin/delete/confirm", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFirstLoadFailureIsBadGateway(t *testing.T) {
	env := newEnv(t)
	env.gw.Fail("list", errors.New("service unavailable"))

	w := env.do(t, http.MethodGet, "/api/v1/admin/events", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func seedMany(env *testEnv, n int) {
	for i := 1; i <= n; i++ {
		env.gw.Seed(models.Event{
			Title:   "Event " + string(rune('A'+i-1)),
			Date:    time.Date(2025, 6, i, 0, 0, 0, 0, time.UTC).Format(models.DateLayout),
			GroupID: int64(1 + i%2),
		})
	}
}

func TestViewTransitions(t *testing.T) {
	env := newEnv(t)
	seedMany(env, 23)

	w := env.do(t, http.MethodPut, "/api/v1/admin/view/page", map[string]int{"page": 3})
	body := decode[viewBody](t, w)
	assert.Equal(t, 3, body.View.Page)
	assert.Len(t, body.View.Items, 3)
	assert.False(t, body.View.HasNext)

	w = env.do(t, http.MethodPost, "/api/v1/admin/view/sort", map[string]string{"field": "title"})
	assert.Equal(t, 3, decode[viewBody](t, w).View.Page)

	w = env.do(t, http.MethodPost, "/api/v1/admin/view/prev", nil)
	assert.Equal(t, 2, decode[viewBody](t, w).View.Page)

	w = env.do(t, http.MethodPut, "/api/v1/admin/view/filter", map[string]any{"group_id": 2})
	body = decode[viewBody](t, w)
	assert.Equal(t, 1, body.View.Page)
	assert.Equal(t, 12, body.View.Total)

	w = env.do(t, http.MethodPut, "/api/v1/admin/view/filter", map[string]any{"search": "no such event"})
	body = decode[viewBody](t, w)
	assert.Zero(t, body.View.Total)
	assert.Equal(t, "No events found. Try adjusting your filters.", body.Table.Empty)

	w = env.do(t, http.MethodGet, "/api/v1/admin/events?featured=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/admin/events?search=&sort=date&dir=desc&page=2", nil)
	body = decode[viewBody](t, w)
	assert.Equal(t, 2, body.View.Page)
	assert.Equal(t, "Event M", body.View.Items[0].Title)
}

func TestDeleteFlow(t *testing.T) {
	env := newEnv(t)
	env.gw.Seed(models.Event{ID: 5, Title: "Ridge walk", Date: "2025-06-10", GroupID: 1})

	w := env.do(t, http.MethodPost, "/api/v1/admin/events/5/delete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `Are you sure you want to delete \"Ridge walk\"?`)
	assert.Zero(t, env.gw.Calls("delete"))

	w = env.do(t, http.MethodPost, "/api/v1/admin/delete/cancel", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/admin/delete", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.do(t, http.MethodPost, "/api/v1/admin/events/5/delete", nil)
	w = env.do(t, http.MethodGet, "/api/v1/admin/events", nil)
	require.NotNil(t, decode[viewBody](t, w).Pending)

	w = env.do(t, http.MethodPost, "/api/v1/admin/delete/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.gw.Calls("list"))

	w = env.do(t, http.MethodGet, "/api/v1/admin/events", nil)
	assert.Zero(t, decode[viewBody](t, w).View.Total)

	w = env.do(t, http.MethodPost, "/api/v1/admin/events/5/delete", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type publicGroups struct {
	Source string `json:"source"`
	Groups []struct {
		ID        int64          `json:"id"`
		Name      string         `json:"name"`
		Slug      string         `json:"slug"`
		Events    []models.Event `json:"events"`
		NextEvent *models.Event  `json:"next_event"`
	} `json:"groups"`
}

func TestFeaturedEventsLive(t *testing.T) {
	env := newEnv(t)
	env.gw.Seed(
		models.Event{Title: "Past featured", Date: "2025-05-01", GroupID: 1, IsFeatured: true},
		models.Event{Title: "Plain", Date: "2025-06-02", GroupID: 1},
		models.Event{Title: "Featured read", Date: "2025-06-20", GroupID: 2, IsFeatured: true},
	)

	w := env.do(t, http.MethodGet, "/api/v1/events/featured", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[publicGroups](t, w)
	assert.Equal(t, "live", body.Source)
	require.Len(t, body.Groups, 2)
	assert.Empty(t, body.Groups[0].Events)
	assert.Nil(t, body.Groups[0].NextEvent)
	require.Len(t, body.Groups[1].Events, 1)
	assert.Equal(t, "Featured read", body.Groups[1].NextEvent.Title)
	assert.Equal(t, "book-club", body.Groups[1].Slug)
}

func TestFeaturedEventsFallsBackToUpcoming(t *testing.T) {
	env := newEnv(t)
	seedMany(env, 8)

	body := decode[publicGroups](t, env.do(t, http.MethodGet, "/api/v1/events/featured", nil))
	total := 0
	for _, g := range body.Groups {
		total += len(g.Events)
	}
	assert.Equal(t, 5, total)
}

func TestFeaturedEventsFromFileWhenBackendFails(t *testing.T) {
	env := newEnv(t)
	env.gw.Fail("groups", errors.New("dial tcp: connection refused"))

	w := env.do(t, http.MethodGet, "/api/v1/events/featured", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[publicGroups](t, w)
	assert.Equal(t, "fallback", body.Source)
	require.Len(t, body.Groups, 2)
	assert.Empty(t, body.Groups[0].Events)
	require.Len(t, body.Groups[1].Events, 1)
	assert.Equal(t, "Static reading", body.Groups[1].Events[0].Title)
}

func TestGroupEndpoints(t *testing.T) {
	env := newEnv(t)
	env.gw.Seed(
		models.Event{Title: "Hike", Date: "2025-06-09", GroupID: 1},
		models.Event{Title: "Read", Date: "2025-06-09", GroupID: 2},
	)

	w := env.do(t, http.MethodGet, "/api/v1/groups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"hikers"`)

	w = env.do(t, http.MethodGet, "/api/v1/groups/1/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	events := decode[struct {
		Events []models.Event `json:"events"`
	}](t, w).Events
	require.Len(t, events, 1)
	assert.Equal(t, "Hike", events[0].Title)

	env.gw.Fail("upcoming", errors.New("timeout"))
	w = env.do(t, http.MethodGet, "/api/v1/groups/1/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Static hike")
	assert.NotContains(t, w.Body.String(), "Old hike")

	w = env.do(t, http.MethodGet, "/api/v1/groups/abc/events", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalendarFeed(t *testing.T) {
	env := newEnv(t)
	env.gw.Seed(models.Event{Title: "Sunset hike", Date: "2025-06-09", GroupID: 1})

	w := env.do(t, http.MethodGet, "/api/v1/events.ics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, w.Body.String(), "SUMMARY:Sunset hike")
}

func TestAdminPage(t *testing.T) {
	env := newEnv(t)
	env.gw.Seed(models.Event{ID: 3, Title: "Ridge walk", Date: "2025-06-10", GroupID: 1})

	w := env.do(t, http.MethodGet, "/admin/events?new=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Ridge walk")
	assert.Contains(t, w.Body.String(), "6/10/2025")
	assert.Contains(t, w.Body.String(), "Add Event")

	w = env.form(t, "/admin/events", url.Values{"title": {""}, "date": {"2025-06-12"}, "group_id": {"1"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a title")

	w = env.form(t, "/admin/events", url.Values{"title": {"Picnic"}, "date": {"2025-06-12"}, "group_id": {"2"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/events?notice=Event+created", w.Header().Get("Location"))

	w = env.form(t, "/admin/events/3/delete", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	w = env.do(t, http.MethodGet, "/admin/events", nil)
	assert.Contains(t, w.Body.String(), "This action cannot be undone.")

	w = env.form(t, "/admin/delete/confirm", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	w = env.do(t, http.MethodGet, "/admin/events", nil)
	assert.NotContains(t, w.Body.String(), "Ridge walk")
	assert.Contains(t, w.Body.String(), "Picnic")
}

func TestHealth(t *testing.T) {
	env := newEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRepeatedListRequestsAreStable(t *testing.T) {
	env := newEnv(t)
	seedMany(env, 23)

	for i := 0; i < 3; i++ {
		body := decode[viewBody](t, env.do(t, http.MethodGet, "/api/v1/admin/events?sort=title", nil))
		assert.Equal(t, "Event A", body.View.Items[0].Title)
	}
	body := decode[viewBody](t, env.do(t, http.MethodGet, "/api/v1/admin/events?sort=title&dir=desc", nil))
	assert.Equal(t, "Event W", body.View.Items[0].Title)

	env.do(t, http.MethodPut, "/api/v1/admin/view/filter", map[string]any{"search": "Event"})
	env.do(t, http.MethodPut, "/api/v1/admin/view/page", map[string]int{"page": 2})
	body = decode[viewBody](t, env.do(t, http.MethodGet, "/api/v1/admin/events?search=Event", nil))
	assert.Equal(t, 2, body.View.Page)

	body = decode[viewBody](t, env.do(t, http.MethodGet, "/api/v1/admin/events?search=Event+B", nil))
	assert.Equal(t, 1, body.View.Page)
}
