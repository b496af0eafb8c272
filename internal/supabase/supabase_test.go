package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"communityhub-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := config.New()
	cfg.Supabase.URL = srv.URL
	cfg.Supabase.AnonKey = "anon-key"
	cfg.Supabase.ServiceRoleKey = ""
	cfg.Supabase.Timeout = 5 * time.Second
	return NewClient(cfg)
}

func TestQuerySelectBuildsPostgRESTRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/events", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "*,groups(name)", q.Get("select"))
		assert.Equal(t, "eq.true", q.Get("is_featured"))
		assert.Equal(t, "gte.2025-06-01", q.Get("date"))
		assert.Equal(t, "date.asc,id.asc", q.Get("order"))
		assert.Equal(t, "5", q.Get("limit"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"id":1,"title":"Hike"}]`))
	})

	res := client.From("events").
		Select("*,groups(name)").
		Eq("is_featured", true).
		Gte("date", "2025-06-01").
		Order("date", true).
		Order("id", true).
		Limit(5).
		Execute(context.Background())
	require.True(t, res.IsOk(), "%v", res.Err())

	rows, err := Decode[[]map[string]any](res).Unwrap()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Hike", rows[0]["title"])
}

func TestQueryInsertSendsRepresentationPreference(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		assert.Equal(t, "application/vnd.pgrst.object+json", r.Header.Get("Accept"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		var row map[string]any
		require.NoError(t, json.Unmarshal(body, &row))
		assert.Equal(t, "Picnic", row["title"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":9,"title":"Picnic"}`))
	})

	res := client.From("events").Insert(map[string]any{"title": "Picnic"}).Single().Execute(context.Background())
	row, err := Decode[map[string]any](res).Unwrap()
	require.NoError(t, err)
	assert.EqualValues(t, 9, row["id"])
}

func TestQueryErrorIsClassified(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotAcceptable)
		_, _ = w.Write([]byte(`{"code":"PGRST116","details":"The result contains 0 rows","message":"JSON object requested, multiple (or no) rows returned"}`))
	})

	res := client.From("events").Select("*").Eq("id", 4).Single().Execute(context.Background())
	require.False(t, res.IsOk())

	var sbErr *SupabaseError
	require.True(t, errors.As(res.Err(), &sbErr))
	assert.True(t, sbErr.IsNotFound())
	assert.False(t, sbErr.IsValidation())
	assert.Equal(t, http.StatusNotAcceptable, sbErr.StatusCode)
}

func TestValidationCodes(t *testing.T) {
	assert.True(t, (&SupabaseError{Code: "23503"}).IsValidation())
	assert.True(t, (&SupabaseError{Code: "22007"}).IsValidation())
	assert.False(t, (&SupabaseError{Code: "42501"}).IsValidation())
}

func TestSignInAndGetUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			_, _ = w.Write([]byte(`{"access_token":"tok","refresh_token":"ref","expires_in":3600,"user":{"id":"u1","email":"admin@example.com"}}`))
		case "/auth/v1/user":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"u1","email":"admin@example.com","role":"authenticated"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	session, err := client.SignIn(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", session.AccessToken)
	assert.Equal(t, "u1", session.User.ID)

	user, err := client.GetUser(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "authenticated", user.Role)

	_, err = client.GetUser(context.Background(), "bad")
	var sbErr *SupabaseError
	require.True(t, errors.As(err, &sbErr))
	assert.Equal(t, "invalid JWT", sbErr.Message)
}

func TestTransportErrorIsReturned(t *testing.T) {
	cfg := config.New()
	cfg.Supabase.URL = "http://127.0.0.1:1"
	cfg.Supabase.AnonKey = "anon"
	cfg.Supabase.Timeout = time.Second

	res := NewClient(cfg).From("groups").Select("id").Limit(1).Execute(context.Background())
	require.False(t, res.IsOk())
	var sbErr *SupabaseError
	assert.False(t, errors.As(res.Err(), &sbErr))
}
