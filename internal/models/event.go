package models

import (
	"strings"
	"time"
)

// UnknownGroup is shown for events whose group could not be joined.
const UnknownGroup = "Unknown Group"

// DateLayout is the calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	StartTime   *string   `json:"start_time"`
	EndTime     *string   `json:"end_time"`
	Location    *string   `json:"location"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"image_url"`
	GroupID     int64     `json:"group_id"`
	GroupName   string    `json:"group_name"`
	IsFeatured  bool      `json:"is_featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventDraft is the payload of a create or update. Validation lives in the
// coordinator so that every field error can be reported at once.
type EventDraft struct {
	Title       string  `json:"title" validate:"required,max=500"`
	Date        string  `json:"date" validate:"required,calendardate"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	GroupID     int64   `json:"group_id" validate:"required,gt=0"`
	IsFeatured  bool    `json:"is_featured"`
}

// Normalize trims free text and turns blank optional fields into nil.
func (d EventDraft) Normalize() EventDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Date = strings.TrimSpace(d.Date)
	d.StartTime = blankToNil(d.StartTime)
	d.EndTime = blankToNil(d.EndTime)
	d.Location = blankToNil(d.Location)
	d.Description = blankToNil(d.Description)
	d.ImageURL = blankToNil(d.ImageURL)
	return d
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006/01/02",
	"01/02/2006",
}

// ParseDate parses the calendar date formats seen in stored and imported
// events. The second return value is false for missing or unparseable input.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3:04 pm", "3:04pm", "3 PM", "3PM"}

// ParseClock parses a wall-clock time such as "18:30" or "6:30 PM". Only the
// hour and minute of the result are meaningful.
func ParseClock(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParsedDate returns the event's calendar date.
func (e *Event) ParsedDate() (time.Time, bool) {
	return ParseDate(e.Date)
}

// IsUpcoming reports whether the event falls on or after today.
func (e *Event) IsUpcoming(today time.Time) bool {
	d, ok := e.ParsedDate()
	if !ok {
		return false
	}
	y, m, day := today.Date()
	return !d.Before(time.Date(y, m, day, 0, 0, 0, 0, time.UTC))
}

func (e *Event) IsToday(today time.Time) bool {
	d, ok := e.ParsedDate()
	if !ok {
		return false
	}
	return d.Year() == today.Year() &&
		d.Month() == today.Month() &&
		d.Day() == today.Day()
}

// Text returns the value of an optional field or "".
func Text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
