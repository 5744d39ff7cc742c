// Package scrape implements the message harvesting pipeline: the time
// window resolver, the newest-first history stream, the per-run sender
// enrichment cache, and the loop that joins them into output records.
package scrape

import (
	"fmt"
	"time"
)

// Unit is the period unit a harvest window is expressed in.
type Unit string

const (
	UnitDays   Unit = "days"
	UnitWeeks  Unit = "weeks"
	UnitMonths Unit = "months"
)

// ParseUnit maps a user-supplied unit name to a Unit.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case UnitDays, UnitWeeks, UnitMonths:
		return Unit(s), nil
	default:
		return "", fmt.Errorf("unknown period unit %q (want days, weeks or months)", s)
	}
}

// Window is an inclusive UTC time range messages must fall into.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ResolveWindow builds the window ending now for "count" units back.
func ResolveWindow(unit Unit, count int) (Window, error) {
	return ResolveWindowAt(unit, count, time.Now().UTC())
}

// ResolveWindowAt builds the window ending at the given instant. A month is
// treated as exactly 30 days, not a calendar month; this mirrors the
// recorded behavior of earlier exports and is kept on purpose.
func ResolveWindowAt(unit Unit, count int, end time.Time) (Window, error) {
	if count <= 0 {
		return Window{}, fmt.Errorf("period count must be positive, got %d", count)
	}

	var span time.Duration
	switch unit {
	case UnitDays:
		span = time.Duration(count) * 24 * time.Hour
	case UnitWeeks:
		span = time.Duration(count) * 7 * 24 * time.Hour
	case UnitMonths:
		span = time.Duration(count) * 30 * 24 * time.Hour
	default:
		return Window{}, fmt.Errorf("unknown period unit %q", unit)
	}

	end = end.UTC()
	return Window{Start: end.Add(-span), End: end}, nil
}
