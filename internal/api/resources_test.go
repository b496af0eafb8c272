package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"communityhub-backend/internal/fallback"
	"communityhub-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resourcesFile = `{
  "categories": [{"id": "food", "name": "Food", "icon": "🍎"}, {"id": "health", "name": "Health"}],
  "resources": [
    {"id": 1, "name": "File Pantry", "description": "Groceries", "category": "food"},
    {"id": 2, "name": "File Clinic", "description": "Walk-in care", "category": "health"}
  ]
}`

type directoryBodyJSON struct {
	Source     string                    `json:"source"`
	Categories []models.ResourceCategory `json:"categories"`
	Resources  []models.Resource         `json:"resources"`
	Pending    *struct {
		Prompt string `json:"prompt"`
	} `json:"pending_delete"`
}

func newResourceEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newEnv(t)

	path := filepath.Join(t.TempDir(), "resources.json")
	require.NoError(t, os.WriteFile(path, []byte(resourcesFile), 0o644))
	env.server.resFile = fallback.NewResourceSource(path)

	phone := "555-0100"
	env.gw.SeedCategories(
		models.ResourceCategory{ID: 1, Name: "Food", Icon: "🍎", IsActive: true},
		models.ResourceCategory{ID: 2, Name: "Health", Icon: "🩺", IsActive: true},
		models.ResourceCategory{ID: 3, Name: "Retired", IsActive: false},
	)
	env.gw.SeedResources(
		models.Resource{ID: 1, Name: "Pantry", Description: "Groceries", CategoryID: 1, Contact: models.Contact{Phone: &phone}, IsActive: true},
		models.Resource{ID: 2, Name: "Clinic", Description: "Walk-in care", CategoryID: 2, Contact: models.Contact{Phone: &phone}, IsActive: true},
		models.Resource{ID: 3, Name: "Closed shelter", Description: "Gone", CategoryID: 2, Contact: models.Contact{Phone: &phone}, IsActive: false},
	)
	return env
}

func TestPublicResourcesFilterByCategory(t *testing.T) {
	env := newResourceEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/resources", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[directoryBodyJSON](t, w)
	assert.Equal(t, sourceLive, body.Source)
	assert.Len(t, body.Categories, 2)
	require.Len(t, body.Resources, 2)
	assert.Equal(t, "Clinic", body.Resources[0].Name)

	w = env.do(t, http.MethodGet, "/api/v1/resources?category=1", nil)
	body = decode[directoryBodyJSON](t, w)
	require.Len(t, body.Resources, 1)
	assert.Equal(t, "Pantry", body.Resources[0].Name)
	assert.Equal(t, "🍎", body.Resources[0].CategoryIcon)

	w = env.do(t, http.MethodGet, "/api/v1/resources?category=all", nil)
	assert.Len(t, decode[directoryBodyJSON](t, w).Resources, 2)

	w = env.do(t, http.MethodGet, "/api/v1/resources?category=food", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicResourcesFromFileWhenBackendFails(t *testing.T) {
	env := newResourceEnv(t)
	env.gw.Fail("resources", errors.New("connection refused"))

	w := env.do(t, http.MethodGet, "/api/v1/resources?category=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[directoryBodyJSON](t, w)
	assert.Equal(t, sourceFallback, body.Source)
	assert.Len(t, body.Categories, 2)
	require.Len(t, body.Resources, 1)
	assert.Equal(t, "File Clinic", body.Resources[0].Name)
	assert.Equal(t, models.DefaultIcon, body.Resources[0].CategoryIcon)
}

func TestPublicResourcesWithoutFileReportBackendError(t *testing.T) {
	env := newResourceEnv(t)
	env.server.resFile = nil
	env.gw.Fail("categories", errors.New("connection refused"))

	w := env.do(t, http.MethodGet, "/api/v1/resources", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCreateResourceValidationMessages(t *testing.T) {
	env := newResourceEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/admin/resources", map[string]any{
		"name": " ", "website": "nope", "contact": map[string]any{"email": "bad"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}](t, w)
	assert.Equal(t, "Please correct the highlighted fields", body.Error)
	assert.Equal(t, "Please enter a name", body.Fields["name"])
	assert.Equal(t, "Please select a category", body.Fields["category_id"])
	assert.Equal(t, "Please enter a description", body.Fields["description"])
	assert.Equal(t, "Please enter a valid website URL", body.Fields["website"])
	assert.Equal(t, "Please enter a valid email address", body.Fields["contact.email"])
	assert.Zero(t, env.gw.Calls("resource_create"))

	w = env.do(t, http.MethodPost, "/api/v1/admin/resources", map[string]any{
		"name": "Library", "category_id": 1, "description": "Books",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Please provide an email or phone number")

	w = env.do(t, http.MethodPost, "/api/v1/admin/resources", map[string]any{
		"name": "Library", "category_id": 42, "description": "Books", "contact": map[string]any{"phone": "555"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Selected category does not exist")
}

func TestAdminResourceLifecycle(t *testing.T) {
	env := newResourceEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/admin/resources", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[directoryBodyJSON](t, w)
	assert.Len(t, body.Categories, 3)
	assert.Len(t, body.Resources, 3)

	w = env.do(t, http.MethodPost, "/api/v1/admin/resources", map[string]any{
		"name":        "Library",
		"category_id": 1,
		"description": "Books",
		"contact":     map[string]any{"email": "desk@library.org"},
		"hours":       map[string]any{"weekday": "9-8"},
		"tags":        []string{"reading"},
		"is_active":   true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		Resource models.Resource `json:"resource"`
	}](t, w).Resource
	assert.Equal(t, "Food", created.CategoryName)

	w = env.do(t, http.MethodPut, "/api/v1/admin/resources/"+strconv.FormatInt(created.ID, 10), map[string]any{
		"name": "City Library", "category_id": 2, "description": "Books",
		"contact": map[string]any{"email": "desk@library.org"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/admin/resources/"+strconv.FormatInt(created.ID, 10), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "City Library", decode[models.Resource](t, w).Name)

	w = env.do(t, http.MethodGet, "/api/v1/admin/resources?category=2", nil)
	assert.Len(t, decode[directoryBodyJSON](t, w).Resources, 3)

	w = env.do(t, http.MethodGet, "/api/v1/admin/resources/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid resource ID")
}

func TestResourceDeleteFlow(t *testing.T) {
	env := newResourceEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/admin/resources/1/delete", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `delete \"Pantry\"?`)
	assert.Zero(t, env.gw.Calls("resource_delete"))

	w = env.do(t, http.MethodGet, "/api/v1/admin/resources", nil)
	body := decode[directoryBodyJSON](t, w)
	require.NotNil(t, body.Pending)

	w = env.do(t, http.MethodPost, "/api/v1/admin/resource-delete/cancel", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/admin/resource-delete", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.do(t, http.MethodPost, "/api/v1/admin/resources/1/delete", nil)
	w = env.do(t, http.MethodPost, "/api/v1/admin/resource-delete/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, env.gw.Calls("resource_delete"))

	w = env.do(t, http.MethodGet, "/api/v1/admin/resources", nil)
	assert.Len(t, decode[directoryBodyJSON](t, w).Resources, 2)

	w = env.do(t, http.MethodPost, "/api/v1/admin/resources/1/delete", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCategoriesIncludeInactive(t *testing.T) {
	env := newResourceEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/admin/resource-categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	categories := decode[[]models.ResourceCategory](t, w)
	require.Len(t, categories, 3)
	assert.Equal(t, "Retired", categories[2].Name)
}
