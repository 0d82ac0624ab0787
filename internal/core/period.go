package core

import "time"

const (
	PeriodWeek  PeriodKind = "week"
	PeriodMonth PeriodKind = "month"
)

// PeriodKind selects weekly or monthly accounting periods. It is a single
// app-wide setting, not per category.
type PeriodKind string

func (k PeriodKind) Valid() bool {
	return k == PeriodWeek || k == PeriodMonth
}

// Period is a half-open date range [Start, End). A transaction dated exactly
// End belongs to the next period.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls inside the half-open range.
func (p Period) Contains(ts time.Time) bool {
	return !ts.Before(p.Start) && ts.Before(p.End)
}

// PeriodRange computes the accounting period containing reference.
//
// For PeriodMonth, startDay is a day of month clamped to [1,28] so every month
// has the start day. If the reference day of month is before startDay the
// period began in the previous month. The period spans one calendar month.
//
// For PeriodWeek, startDay is a weekday index 1..7 (1 = Sunday). The period
// starts at the most recent occurrence of that weekday on or before reference
// and spans seven days.
//
// The result is normalized to midnight UTC and depends only on the arguments.
func PeriodRange(reference time.Time, kind PeriodKind, startDay int) Period {
	ref := reference.UTC()

	if kind == PeriodWeek {
		weekday := clampWeekday(startDay)
		current := int(ref.Weekday()) + 1 // Go: Sunday=0, settings: Sunday=1
		daysBack := (current - weekday + 7) % 7
		start := midnight(ref.AddDate(0, 0, -daysBack))
		return Period{Start: start, End: start.AddDate(0, 0, 7)}
	}

	day := clampMonthStartDay(startDay)
	year, month, _ := ref.Date()
	if ref.Day() < day {
		// The period containing reference started last month.
		month--
	}
	start := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// NextPeriodStart returns the start of the period immediately following the
// period containing reference.
func NextPeriodStart(reference time.Time, kind PeriodKind, startDay int) time.Time {
	p := PeriodRange(reference, kind, startDay)
	return PeriodRange(p.End, kind, startDay).Start
}

// IsPastPeriod reports whether the period containing reference has fully
// elapsed by now.
func IsPastPeriod(reference time.Time, kind PeriodKind, startDay int, now time.Time) bool {
	return !PeriodRange(reference, kind, startDay).End.After(now.UTC())
}

func clampMonthStartDay(day int) int {
	if day < 1 {
		return 1
	}
	if day > 28 {
		// Avoid month-length edge cases: every month has a day 28.
		return 28
	}
	return day
}

func clampWeekday(day int) int {
	if day < 1 || day > 7 {
		return 1
	}
	return day
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
