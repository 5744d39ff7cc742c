package scrape

import (
	"testing"
	"time"
)

func TestResolveWindowAt(t *testing.T) {
	t.Parallel()

	end := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		unit  Unit
		count int
		want  time.Duration
	}{
		{"one day", UnitDays, 1, 24 * time.Hour},
		{"two weeks", UnitWeeks, 2, 14 * 24 * time.Hour},
		{"one month is thirty days", UnitMonths, 1, 30 * 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, err := ResolveWindowAt(tt.unit, tt.count, end)
			if err != nil {
				t.Fatalf("ResolveWindowAt: %v", err)
			}
			if !w.End.Equal(end) {
				t.Errorf("End = %v, want %v", w.End, end)
			}
			if got := w.End.Sub(w.Start); got != tt.want {
				t.Errorf("span = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveWindowAtRejectsNonPositiveCount(t *testing.T) {
	t.Parallel()

	for _, count := range []int{0, -3} {
		if _, err := ResolveWindowAt(UnitDays, count, time.Now()); err == nil {
			t.Errorf("count %d: expected error", count)
		}
	}
}

func TestParseUnit(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"days", "weeks", "months"} {
		if _, err := ParseUnit(valid); err != nil {
			t.Errorf("ParseUnit(%q): %v", valid, err)
		}
	}
	if _, err := ParseUnit("fortnights"); err == nil {
		t.Error("ParseUnit(fortnights): expected error")
	}
}

func TestWindowContainsIsInclusive(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	w := Window{Start: start, End: end}

	if !w.Contains(start) || !w.Contains(end) {
		t.Error("window boundaries must be inside the window")
	}
	if w.Contains(start.Add(-time.Second)) || w.Contains(end.Add(time.Second)) {
		t.Error("instants outside the boundaries must be excluded")
	}
}
