// Package calendar exports events as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"time"

	"communityhub-backend/internal/models"

	ical "github.com/arran4/golang-ical"
)

const productID = "-//Community Hub//Events//EN"

// defaultDuration is used for timed events without an end time.
const defaultDuration = time.Hour

func uid(e models.Event) string {
	return fmt.Sprintf("event-%d@communityhub", e.ID)
}

// at combines a calendar date with a wall-clock string in loc.
func at(date time.Time, clock *string, loc *time.Location) (time.Time, bool) {
	if clock == nil {
		return time.Time{}, false
	}
	t, ok := models.ParseClock(*clock)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), true
}

// Build returns a calendar with one VEVENT per event. Events without a
// usable date are left out; events without a start time become all-day
// entries.
func Build(name string, events []models.Event, loc *time.Location, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone(loc.String())

	for _, e := range events {
		date, ok := e.ParsedDate()
		if !ok {
			continue
		}

		ev := cal.AddEvent(uid(e))
		ev.SetDtStampTime(stamp)
		if !e.UpdatedAt.IsZero() {
			ev.SetModifiedAt(e.UpdatedAt)
		}
		ev.SetSummary(e.Title)
		if e.Location != nil {
			ev.SetLocation(*e.Location)
		}
		if e.Description != nil {
			ev.SetDescription(*e.Description)
		}
		if e.ImageURL != nil {
			ev.SetURL(*e.ImageURL)
		}
		if e.GroupName != "" {
			ev.AddProperty(ical.ComponentPropertyCategories, e.GroupName)
		}

		start, timed := at(date, e.StartTime, loc)
		if !timed {
			day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
			ev.SetAllDayStartAt(day)
			ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
			continue
		}
		end, ok := at(date, e.EndTime, loc)
		if !ok || !end.After(start) {
			end = start.Add(defaultDuration)
		}
		ev.SetStartAt(start)
		ev.SetEndAt(end)
	}
	return cal
}

// Write serializes the calendar built from events.
func Write(w io.Writer, name string, events []models.Event, loc *time.Location, stamp time.Time) error {
	_, err := io.WriteString(w, Build(name, events, loc, stamp).Serialize())
	return err
}
