package core

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodRange_Month(t *testing.T) {
	tests := []struct {
		name      string
		reference time.Time
		startDay  int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "start day 1, mid month",
			reference: date(2024, time.January, 15),
			startDay:  1,
			wantStart: date(2024, time.January, 1),
			wantEnd:   date(2024, time.February, 1),
		},
		{
			name:      "day before start day falls into previous month",
			reference: date(2024, time.January, 5),
			startDay:  25,
			wantStart: date(2023, time.December, 25),
			wantEnd:   date(2024, time.January, 25),
		},
		{
			name:      "day on start day opens the new period",
			reference: date(2024, time.January, 25),
			startDay:  25,
			wantStart: date(2024, time.January, 25),
			wantEnd:   date(2024, time.February, 25),
		},
		{
			name:      "start day above 28 clamps",
			reference: date(2024, time.March, 30),
			startDay:  31,
			wantStart: date(2024, time.March, 28),
			wantEnd:   date(2024, time.April, 28),
		},
		{
			name:      "start day below 1 clamps",
			reference: date(2024, time.March, 15),
			startDay:  0,
			wantStart: date(2024, time.March, 1),
			wantEnd:   date(2024, time.April, 1),
		},
		{
			name:      "time of day does not matter",
			reference: time.Date(2024, time.January, 1, 23, 59, 59, 0, time.UTC),
			startDay:  1,
			wantStart: date(2024, time.January, 1),
			wantEnd:   date(2024, time.February, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PeriodRange(tt.reference, PeriodMonth, tt.startDay)
			if !p.Start.Equal(tt.wantStart) || !p.End.Equal(tt.wantEnd) {
				t.Errorf("PeriodRange() = [%v, %v), want [%v, %v)", p.Start, p.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestPeriodRange_Week(t *testing.T) {
	// 2024-01-15 is a Monday.
	tests := []struct {
		name      string
		reference time.Time
		startDay  int // 1=Sunday .. 7=Saturday
		wantStart time.Time
	}{
		{
			name:      "monday reference, monday start",
			reference: date(2024, time.January, 15),
			startDay:  2,
			wantStart: date(2024, time.January, 15),
		},
		{
			name:      "monday reference, sunday start",
			reference: date(2024, time.January, 15),
			startDay:  1,
			wantStart: date(2024, time.January, 14),
		},
		{
			name:      "monday reference, tuesday start reaches back six days",
			reference: date(2024, time.January, 15),
			startDay:  3,
			wantStart: date(2024, time.January, 9),
		},
		{
			name:      "invalid weekday falls back to sunday",
			reference: date(2024, time.January, 15),
			startDay:  9,
			wantStart: date(2024, time.January, 14),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PeriodRange(tt.reference, PeriodWeek, tt.startDay)
			if !p.Start.Equal(tt.wantStart) {
				t.Errorf("PeriodRange().Start = %v, want %v", p.Start, tt.wantStart)
			}
			if want := tt.wantStart.AddDate(0, 0, 7); !p.End.Equal(want) {
				t.Errorf("PeriodRange().End = %v, want %v", p.End, want)
			}
		})
	}
}

// Consecutive periods must tile the timeline: asking for the period at a
// previous period's End yields a contiguous, non-overlapping range.
func TestPeriodRange_HalfOpenCoverage(t *testing.T) {
	configs := []struct {
		name     string
		kind     PeriodKind
		startDay int
		ref      time.Time
	}{
		{"month start 1", PeriodMonth, 1, date(2024, time.January, 10)},
		{"month start 25", PeriodMonth, 25, date(2024, time.January, 10)},
		{"week sunday", PeriodWeek, 1, date(2024, time.January, 10)},
		{"week friday", PeriodWeek, 6, date(2024, time.January, 10)},
	}

	for _, tc := range configs {
		t.Run(tc.name, func(t *testing.T) {
			ref := tc.ref
			for i := 0; i < 24; i++ {
				p := PeriodRange(ref, tc.kind, tc.startDay)
				next := PeriodRange(p.End, tc.kind, tc.startDay)
				if !next.Start.Equal(p.End) {
					t.Fatalf("period after [%v, %v) starts at %v, want %v", p.Start, p.End, next.Start, p.End)
				}
				if p.Contains(p.End) {
					t.Fatalf("period [%v, %v) must not contain its own end", p.Start, p.End)
				}
				if !p.Contains(p.Start) {
					t.Fatalf("period [%v, %v) must contain its own start", p.Start, p.End)
				}
				ref = p.End
			}
		})
	}
}

func TestNextPeriodStart(t *testing.T) {
	got := NextPeriodStart(date(2024, time.January, 1), PeriodMonth, 1)
	if want := date(2024, time.February, 1); !got.Equal(want) {
		t.Errorf("NextPeriodStart() = %v, want %v", got, want)
	}

	got = NextPeriodStart(date(2024, time.January, 14), PeriodWeek, 1)
	if want := date(2024, time.January, 21); !got.Equal(want) {
		t.Errorf("NextPeriodStart() = %v, want %v", got, want)
	}
}

func TestIsPastPeriod(t *testing.T) {
	now := date(2024, time.March, 10)

	if !IsPastPeriod(date(2024, time.January, 5), PeriodMonth, 1, now) {
		t.Errorf("january period should be past at %v", now)
	}
	if IsPastPeriod(date(2024, time.March, 5), PeriodMonth, 1, now) {
		t.Errorf("current period should not be past")
	}
	// A period ending exactly now has fully elapsed (end is exclusive).
	if !IsPastPeriod(date(2024, time.February, 10), PeriodMonth, 1, date(2024, time.March, 1)) {
		t.Errorf("period ending exactly at now should count as past")
	}
}
