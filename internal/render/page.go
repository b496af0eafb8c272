package render

import (
	"embed"
	"html/template"
	"io"

	"communityhub-backend/internal/models"
	"communityhub-backend/internal/viewmodel"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplate = template.Must(
	template.New("events.html").Funcs(template.FuncMap{
		"text": models.Text,
		"add":  func(a, b int) int { return a + b },
		"selected": func(filter *int64, id int64) bool {
			return filter != nil && *filter == id
		},
		"sortMark": func(s viewmodel.SortState, field string) string {
			if string(s.Field) != field {
				return ""
			}
			if s.Direction == viewmodel.Descending {
				return "▼"
			}
			return "▲"
		},
		"sortDir": func(s viewmodel.SortState, field string) string {
			return string(s.NextDirection(viewmodel.SortField(field)))
		},
	}).ParseFS(templatesFS, "templates/events.html"),
)

// Form is the create or edit form with its inline field errors.
type Form struct {
	Action  string
	Heading string
	Draft   models.EventDraft
	Errors  map[string]string
}

// Confirm is the pending delete awaiting an answer.
type Confirm struct {
	ID     int64
	Prompt string
}

// Page is everything shown on the admin events page.
type Page struct {
	Table   Table
	State   viewmodel.State
	Groups  []models.Group
	Banner  string
	Notice  string
	Confirm *Confirm
	Form    *Form
	Busy    bool
}

// WritePage renders the whole page; nothing is diffed against a previous
// render.
func WritePage(w io.Writer, p Page) error {
	return pageTemplate.Execute(w, p)
}
