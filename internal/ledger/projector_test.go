package ledger

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name      string
		day       int
		reference time.Time
		want      time.Time
	}{
		{
			name:      "later this month",
			day:       15,
			reference: date(2026, time.August, 10),
			want:      date(2026, time.August, 15),
		},
		{
			name:      "today counts as next",
			day:       10,
			reference: date(2026, time.August, 10),
			want:      date(2026, time.August, 10),
		},
		{
			name:      "already past rolls to next month",
			day:       5,
			reference: date(2026, time.August, 10),
			want:      date(2026, time.September, 5),
		},
		{
			name:      "day 31 clamps in a 30-day month",
			day:       31,
			reference: date(2026, time.September, 1),
			want:      date(2026, time.September, 30),
		},
		{
			name:      "day 31 clamps in February",
			day:       31,
			reference: date(2026, time.February, 1),
			want:      date(2026, time.February, 28),
		},
		{
			name:      "day 29 in a leap February",
			day:       29,
			reference: date(2028, time.February, 1),
			want:      date(2028, time.February, 29),
		},
		{
			name:      "clamped day equals reference in a short month",
			day:       31,
			reference: date(2026, time.April, 30),
			want:      date(2026, time.April, 30),
		},
		{
			name:      "december wraps to january",
			day:       5,
			reference: date(2026, time.December, 20),
			want:      date(2027, time.January, 5),
		},
		{
			name:      "time of day is ignored",
			day:       10,
			reference: time.Date(2026, time.August, 10, 23, 59, 0, 0, time.UTC),
			want:      date(2026, time.August, 10),
		},
		{
			name:      "unset day clamps to first of month",
			day:       0,
			reference: date(2026, time.August, 10),
			want:      date(2026, time.September, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(tt.day, tt.reference)
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence(%d, %s) = %s, want %s",
					tt.day, tt.reference.Format("2006-01-02"), got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestClampDay(t *testing.T) {
	tests := []struct {
		day   int
		year  int
		month time.Month
		want  int
	}{
		{31, 2026, time.April, 30},
		{31, 2026, time.January, 31},
		{30, 2026, time.February, 28},
		{29, 2028, time.February, 29},
		{15, 2026, time.June, 15},
		{0, 2026, time.June, 1},
		{-3, 2026, time.June, 1},
	}
	for _, tt := range tests {
		if got := clampDay(tt.day, tt.year, tt.month); got != tt.want {
			t.Errorf("clampDay(%d, %d, %s) = %d, want %d", tt.day, tt.year, tt.month, got, tt.want)
		}
	}
}
