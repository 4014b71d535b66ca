package kpi

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DefaultCap = 100.0

// CappedChange is the percentage change from previous to current bounded to
// [-bound, bound]. A zero previous value, or one under 1% of current, reports the
// bound with the sign of current.
func CappedChange(current, previous, bound float64) float64 {
	if bound < 0 {
		bound = -bound
	}
	if previous == 0 || previous < 0.01*current {
		if current > 0 {
			return bound
		}
		return -bound
	}
	ch := (current - previous) / previous * 100
	if ch > bound {
		return bound
	}
	if ch < -bound {
		return -bound
	}
	return ch
}

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w Window) IsZero() bool { return w.Start.IsZero() && w.End.IsZero() }

// Offset moves a window back in time. PrevMonth ignores Days/Months and picks
// the whole calendar month before the window start.
type Offset struct {
	Days      int
	Months    int
	PrevMonth bool
}

func (o Offset) String() string {
	switch {
	case o.PrevMonth:
		return "prev-month"
	case o.Months != 0 && o.Days == 0:
		return strconv.Itoa(o.Months) + "m"
	default:
		return strconv.Itoa(o.Days) + "d"
	}
}

// ParseOffset accepts "14d", "30d", "1m" and "prev-month".
func ParseOffset(s string) (Offset, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "prev-month" {
		return Offset{PrevMonth: true}, nil
	}
	if len(s) < 2 {
		return Offset{}, fmt.Errorf("invalid offset %q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return Offset{}, fmt.Errorf("invalid offset %q", s)
	}
	switch s[len(s)-1] {
	case 'd':
		return Offset{Days: n}, nil
	case 'm':
		return Offset{Months: n}, nil
	}
	return Offset{}, fmt.Errorf("invalid offset %q", s)
}

func (o Offset) Shift(w Window) Window {
	if o.PrevMonth {
		y, m, _ := w.Start.Date()
		first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		return Window{Start: first, End: first.AddDate(0, 1, -1)}
	}
	return Window{Start: back(w.Start, o), End: back(w.End, o)}
}

func back(t time.Time, o Offset) time.Time {
	t = t.AddDate(0, 0, -o.Days)
	if o.Months == 0 {
		return t
	}
	y, m, d := t.Date()
	target := time.Date(y, m-time.Month(o.Months), 1, 0, 0, 0, 0, time.UTC)
	last := target.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, 0, 0, 0, 0, time.UTC)
}
