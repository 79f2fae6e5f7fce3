// Package daterange maps list-filter date ranges (desde / hasta) to named
// shortcuts and back.
package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout of dates in query strings and date inputs
const Layout = "2006-01-02"

// Shortcut a named date range relative to today
type Shortcut string

const (
	Today         Shortcut = "hoy"
	Week          Shortcut = "semana"
	Month         Shortcut = "mes"
	PreviousMonth Shortcut = "mes_anterior"
	Year          Shortcut = "anio"
	All           Shortcut = "todo"
	Custom        Shortcut = ""
)

// ErrUnknownShortcut returned for shortcut names that are not defined
var ErrUnknownShortcut = errors.New("unknown date range shortcut")

// detectOrder most specific first
var detectOrder = []Shortcut{Today, Week, Month, PreviousMonth, Year}

// Bounds returns the inclusive range of a shortcut. All yields two zero times.
// ok is false for Custom and unknown shortcuts.
func Bounds(s Shortcut, today time.Time) (from, to time.Time, ok bool) {
	today = day(today)
	switch s {
	case Today:
		return today, today, true
	case Week:
		// ISO weeks start on Monday
		offset := (int(today.Weekday()) + 6) % 7
		return today.AddDate(0, 0, -offset), today, true
	case Month:
		return firstOfMonth(today), today, true
	case PreviousMonth:
		first := firstOfMonth(today)
		return first.AddDate(0, -1, 0), first.AddDate(0, 0, -1), true
	case Year:
		return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location()), today, true
	case All:
		return time.Time{}, time.Time{}, true
	}
	return time.Time{}, time.Time{}, false
}

// Detect names the shortcut matching [from, to], or Custom when none does.
// Two zero times mean an unfiltered list.
func Detect(from, to, today time.Time) Shortcut {
	if from.IsZero() && to.IsZero() {
		return All
	}
	if from.IsZero() || to.IsZero() {
		return Custom
	}
	from, to = day(from), day(to)
	for _, s := range detectOrder {
		f, t, _ := Bounds(s, today)
		if from.Equal(f) && to.Equal(t) {
			return s
		}
	}
	return Custom
}

// Parse validates a shortcut name
func Parse(name string) (Shortcut, error) {
	s := Shortcut(strings.ToLower(strings.TrimSpace(name)))
	if _, _, ok := Bounds(s, time.Now()); !ok {
		return Custom, fmt.Errorf("%q: %w", name, ErrUnknownShortcut)
	}
	return s, nil
}

// ParseDate reads a YYYY-MM-DD date in loc. Blank input yields the zero time.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(Layout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", value, err)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD, "" for the zero time
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(Layout)
}

// day truncates t to midnight in its own location
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
