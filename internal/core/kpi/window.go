package kpi

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lorrc/service-desk-kpi/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-kpi/internal/core/errors"
)

// WindowKind selects how a window is split into buckets.
type WindowKind int

const (
	// WindowYear buckets the twelve months of a calendar year.
	WindowYear WindowKind = iota
	// WindowMonth buckets the Sunday-aligned weeks of a calendar month.
	WindowMonth
	// WindowRelative buckets the most recent N calendar months.
	WindowRelative
	// WindowRange is a single bucket over an inclusive date range.
	WindowRange
)

func (k WindowKind) String() string {
	switch k {
	case WindowYear:
		return "year"
	case WindowMonth:
		return "month"
	case WindowRelative:
		return "relative"
	case WindowRange:
		return "range"
	default:
		return "unknown"
	}
}

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
	monthLabel  = "Jan 2006"
)

var relativeWindows = map[string]int{
	"last3months": 3,
	"last6months": 6,
	"lastyear":    12,
}

var (
	yearPattern  = regexp.MustCompile(`^\d{4}$`)
	monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// Window is a resolved report window. Start and End bound it as a half-open
// interval in the calendar location it was parsed in.
type Window struct {
	Kind  WindowKind
	Spec  string
	Start time.Time
	End   time.Time
}

// Bounds returns the half-open interval covered by all of the window's
// buckets.
func (w Window) Bounds() (time.Time, time.Time) {
	return w.Start, w.End
}

// ParseWindow resolves a window spec against now. Calendar arithmetic uses
// now's location.
//
// Accepted specs: "" (now's year), "YYYY", "YYYY-MM", "last3months",
// "last6months", "lastyear" and "YYYY-MM-DD..YYYY-MM-DD".
func ParseWindow(spec string, now time.Time) (Window, error) {
	loc := now.Location()
	trimmed := strings.ToLower(strings.TrimSpace(spec))

	switch {
	case trimmed == "":
		return yearWindow(now.Year(), loc), nil

	case yearPattern.MatchString(trimmed):
		year, _ := strconv.Atoi(trimmed)
		if year < 1 {
			return Window{}, invalidWindow(spec)
		}
		return yearWindow(year, loc), nil

	case monthPattern.MatchString(trimmed):
		start, err := time.ParseInLocation(monthLayout, trimmed, loc)
		if err != nil {
			return Window{}, invalidWindow(spec)
		}
		return Window{
			Kind:  WindowMonth,
			Spec:  start.Format(monthLayout),
			Start: start,
			End:   start.AddDate(0, 1, 0),
		}, nil

	case strings.Contains(trimmed, ".."):
		return rangeWindow(spec, trimmed, loc)
	}

	months, ok := relativeWindows[trimmed]
	if !ok {
		return Window{}, invalidWindow(spec)
	}
	current := firstOfMonth(now)
	return Window{
		Kind:  WindowRelative,
		Spec:  trimmed,
		Start: current.AddDate(0, -(months - 1), 0),
		End:   current.AddDate(0, 1, 0),
	}, nil
}

func yearWindow(year int, loc *time.Location) Window {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return Window{
		Kind:  WindowYear,
		Spec:  strconv.Itoa(year),
		Start: start,
		End:   start.AddDate(1, 0, 0),
	}
}

func rangeWindow(spec, trimmed string, loc *time.Location) (Window, error) {
	from, to, _ := strings.Cut(trimmed, "..")

	start, err := time.ParseInLocation(dateLayout, strings.TrimSpace(from), loc)
	if err != nil {
		return Window{}, invalidWindow(spec)
	}
	last, err := time.ParseInLocation(dateLayout, strings.TrimSpace(to), loc)
	if err != nil || last.Before(start) {
		return Window{}, invalidWindow(spec)
	}

	return Window{
		Kind:  WindowRange,
		Spec:  start.Format(dateLayout) + ".." + last.Format(dateLayout),
		Start: start,
		End:   last.AddDate(0, 0, 1),
	}, nil
}

func invalidWindow(spec string) error {
	return fmt.Errorf("%w: %q", apperrors.ErrInvalidWindow, spec)
}

// Buckets splits the window into its empty, chronologically ordered periods.
func (w Window) Buckets() []domain.TimeBucket {
	switch w.Kind {
	case WindowMonth:
		return weekBuckets(w.Start, w.End)
	case WindowYear, WindowRelative:
		return monthBuckets(w.Start, w.End)
	case WindowRange:
		last := w.End.AddDate(0, 0, -1)
		return []domain.TimeBucket{{
			Label:       w.Start.Format(dateLayout) + " to " + last.Format(dateLayout),
			PeriodStart: w.Start,
			PeriodEnd:   w.End,
			Summary:     domain.EmptyKPISummary(),
		}}
	default:
		return nil
	}
}

// weekBuckets splits a month into Sunday-aligned weeks. Week 1 runs from the
// 1st up to the next Sunday, so it is shorter than seven days unless the
// month starts on a Sunday. The last week is cut at the month's end.
func weekBuckets(start, end time.Time) []domain.TimeBucket {
	daysToSunday := (7 - int(start.Weekday())) % 7
	if daysToSunday == 0 {
		daysToSunday = 7
	}

	var buckets []domain.TimeBucket
	periodStart := start
	periodEnd := start.AddDate(0, 0, daysToSunday)
	for week := 1; periodStart.Before(end); week++ {
		if periodEnd.After(end) {
			periodEnd = end
		}
		buckets = append(buckets, domain.TimeBucket{
			Label:       "Week " + strconv.Itoa(week),
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			Summary:     domain.EmptyKPISummary(),
		})
		periodStart = periodEnd
		periodEnd = periodStart.AddDate(0, 0, 7)
	}
	return buckets
}

func monthBuckets(start, end time.Time) []domain.TimeBucket {
	var buckets []domain.TimeBucket
	for periodStart := start; periodStart.Before(end); periodStart = periodStart.AddDate(0, 1, 0) {
		buckets = append(buckets, domain.TimeBucket{
			Label:       periodStart.Format(monthLabel),
			PeriodStart: periodStart,
			PeriodEnd:   periodStart.AddDate(0, 1, 0),
			Summary:     domain.EmptyKPISummary(),
		})
	}
	return buckets
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
