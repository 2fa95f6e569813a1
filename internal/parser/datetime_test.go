package parser

import (
	"errors"
	"testing"
	"time"
)

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		date     string
		clock    string
		expected time.Time
	}{
		{"15/01/2024", "", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"15/01/2567", "10:30", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"5-1-2567", "08:05:09", time.Date(2024, 1, 5, 8, 5, 9, 0, time.UTC)},
		{"15/01/24", "", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"15/01/50", "", time.Date(2050, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"15/01/99", "", time.Date(1999, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-01-15", "23:59", time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)},
		{"2567-01-15", "", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"29/02/2567", "", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"01/03/2024", "9.15", time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)},
		{" 01/03/2024 ", " ", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.date+" "+tt.clock, func(t *testing.T) {
			got, err := ParseDateTime(tt.date, tt.clock)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.expected) {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseDateTime_Invalid(t *testing.T) {
	tests := []struct {
		date  string
		clock string
	}{
		{"", ""},
		{"Date", ""},
		{"15/01", ""},
		{"15/01/202", ""},
		{"15/01-2024", ""},
		{"31/02/2024", ""},
		{"00/01/2024", ""},
		{"15/13/2024", ""},
		{"2024/01/15", ""},
		{"15/01/2024", "24:00"},
		{"15/01/2024", "10:60"},
		{"15/01/2024", "noon"},
	}

	for _, tt := range tests {
		t.Run(tt.date+" "+tt.clock, func(t *testing.T) {
			_, err := ParseDateTime(tt.date, tt.clock)
			if !errors.Is(err, ErrBadDate) {
				t.Errorf("expected ErrBadDate, got %v", err)
			}
		})
	}
}

func TestParseDateTime_DayFirstMatchesYearFirst(t *testing.T) {
	pairs := [][2]string{
		{"15/01/2024", "2024-01-15"},
		{"15-01-2567", "2024-01-15"},
		{"1/2/2024", "2567-02-01"},
		{"31/12/99", "1999-12-31"},
	}
	for _, p := range pairs {
		a, errA := ParseDateTime(p[0], "")
		b, errB := ParseDateTime(p[1], "")
		if errA != nil || errB != nil {
			t.Fatalf("unexpected errors: %v, %v", errA, errB)
		}
		if !a.Equal(b) {
			t.Errorf("%s and %s: got %v and %v", p[0], p[1], a, b)
		}
	}
}

func TestToGregorian(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{2567, 2024},
		{2501, 1958},
		{2500, 2500},
		{2024, 2024},
		{1999, 1999},
	}
	for _, tt := range tests {
		if got := ToGregorian(tt.input); got != tt.expected {
			t.Errorf("ToGregorian(%d): got %d, want %d", tt.input, got, tt.expected)
		}
	}
}
