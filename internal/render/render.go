// Package render turns a computed view into the rows of the admin events
// table and renders the admin page around it.
package render

import (
	"fmt"
	"strings"

	"communityhub-backend/internal/models"
	"communityhub-backend/internal/viewmodel"
)

const (
	InvalidDate  = "Invalid date"
	EmptyMessage = "No events found. Try adjusting your filters."

	displayDate = "1/2/2006"
	displayTime = "3:04 PM"
)

// Row is one line of the events table.
type Row struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Date          string `json:"date"`
	Time          string `json:"time,omitempty"`
	Group         string `json:"group"`
	Featured      bool   `json:"featured"`
	FeaturedLabel string `json:"featured_label"`
	EditURL       string `json:"edit_url"`
	DeleteURL     string `json:"delete_url"`
}

// Table holds the visible rows and the pager. Empty is set, and Rows is nil,
// when nothing matched.
type Table struct {
	Rows       []Row  `json:"rows"`
	Empty      string `json:"empty,omitempty"`
	Summary    string `json:"summary"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	HasPrev    bool   `json:"has_prev"`
	HasNext    bool   `json:"has_next"`
}

// FormatDate renders a stored date for display, or InvalidDate.
func FormatDate(raw string) string {
	d, ok := models.ParseDate(raw)
	if !ok {
		return InvalidDate
	}
	return d.Format(displayDate)
}

// FormatTime renders a wall-clock string on the 12-hour clock. Values it
// cannot parse are shown as entered.
func FormatTime(raw string) string {
	if t, ok := models.ParseClock(raw); ok {
		return t.Format(displayTime)
	}
	return strings.TrimSpace(raw)
}

// TimeRange is "" without a start time; an end time alone is not shown.
func TimeRange(start, end *string) string {
	s := strings.TrimSpace(models.Text(start))
	if s == "" {
		return ""
	}
	out := FormatTime(s)
	if e := strings.TrimSpace(models.Text(end)); e != "" {
		out += " - " + FormatTime(e)
	}
	return out
}

func featuredLabel(f bool) string {
	if f {
		return "Featured"
	}
	return "Not Featured"
}

func project(e models.Event) Row {
	return Row{
		ID:            e.ID,
		Title:         e.Title,
		Date:          FormatDate(e.Date),
		Time:          TimeRange(e.StartTime, e.EndTime),
		Group:         e.GroupName,
		Featured:      e.IsFeatured,
		FeaturedLabel: featuredLabel(e.IsFeatured),
		EditURL:       fmt.Sprintf("/admin/events?edit=%d", e.ID),
		DeleteURL:     fmt.Sprintf("/admin/events/%d/delete", e.ID),
	}
}

// Project builds the table for the current page of v.
func Project(v viewmodel.View) Table {
	t := Table{
		Summary:    fmt.Sprintf("Showing %d to %d of %d events", v.Start, v.End, v.Total),
		Page:       v.Page,
		TotalPages: v.TotalPages,
		HasPrev:    v.HasPrev,
		HasNext:    v.HasNext,
	}
	if len(v.Items) == 0 {
		t.Empty = EmptyMessage
		return t
	}
	t.Rows = make([]Row, 0, len(v.Items))
	for _, e := range v.Items {
		t.Rows = append(t.Rows, project(e))
	}
	return t
}
