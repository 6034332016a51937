package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/jsong1004/ai-service/internal/domain/derrors"
)

// Range is the reporting window requested by the dashboard.
type Range string

const (
	Range1Month  Range = "1month"
	Range3Months Range = "3months"
	Range6Months Range = "6months"
	Range1Year   Range = "1year"
)

// DefaultRange is used when the caller does not name one.
const DefaultRange = Range6Months

// ErrBadRange is returned by ParseRange for unknown values.
var ErrBadRange = fmt.Errorf("%w: range must be one of 1month, 3months, 6months, 1year", derrors.ErrInvalidInput)

// ParseRange normalizes s. An empty string yields DefaultRange.
func ParseRange(s string) (Range, error) {
	r := Range(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case "":
		return DefaultRange, nil
	case Range1Month, Range3Months, Range6Months, Range1Year:
		return r, nil
	}
	return "", ErrBadRange
}

// Months is the calendar length of the range.
func (r Range) Months() int {
	switch r {
	case Range1Month:
		return 1
	case Range3Months:
		return 3
	case Range1Year:
		return 12
	default:
		return 6
	}
}

// TimelineMonths is the number of monthly buckets shown for the range.
// 1month still shows three buckets so the chart has a trend.
func (r Range) TimelineMonths() int {
	switch r {
	case Range1Year:
		return 12
	case Range6Months:
		return 6
	default:
		return 3
	}
}

// monthStart returns midnight on the first of t's month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// AddMonths moves t by n calendar months keeping the time of day. When the
// target month is shorter the day is clamped to its last day, so one month
// before March 31 is the last day of February.
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Window is the [Start, End] span a report covers.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowFor returns the report window ending at now.
func WindowFor(now time.Time, r Range) Window {
	return Window{Start: AddMonths(now, -r.Months()), End: now}
}

// FetchFrom is the earliest instant any part of a report for (now, r)
// reads: the window start, the first timeline bucket, or the previous
// calendar month used for month-over-month.
func FetchFrom(now time.Time, r Range) time.Time {
	cur := monthStart(now)
	earliest := WindowFor(now, r).Start
	if t := cur.AddDate(0, -(r.TimelineMonths() - 1), 0); t.Before(earliest) {
		earliest = t
	}
	if t := cur.AddDate(0, -1, 0); t.Before(earliest) {
		earliest = t
	}
	return earliest
}

func inWindow(t time.Time, w Window) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// inMonth reports whether t falls in [start, end).
func inMonth(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
