package util

import (
	"testing"
	"time"
)

func TestPreviousMonth(t *testing.T) {
	tests := []struct {
		year, month         int
		wantYear, wantMonth int
	}{
		{2025, 3, 2025, 2},
		{2025, 1, 2024, 12},
		{2024, 12, 2024, 11},
	}

	for _, tt := range tests {
		gotYear, gotMonth := PreviousMonth(tt.year, tt.month)
		if gotYear != tt.wantYear || gotMonth != tt.wantMonth {
			t.Errorf("PreviousMonth(%d, %d) = (%d, %d), want (%d, %d)",
				tt.year, tt.month, gotYear, gotMonth, tt.wantYear, tt.wantMonth)
		}
	}
}

func TestNextMonth(t *testing.T) {
	gotYear, gotMonth := NextMonth(2024, 12)
	if gotYear != 2025 || gotMonth != 1 {
		t.Errorf("NextMonth(2024, 12) = (%d, %d), want (2025, 1)", gotYear, gotMonth)
	}
}

func TestMonthEnd(t *testing.T) {
	tests := []struct {
		year, month int
		want        time.Time
	}{
		{2025, 1, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)},
		{2025, 2, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{2024, 2, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{2025, 12, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		if got := MonthEnd(tt.year, tt.month); !got.Equal(tt.want) {
			t.Errorf("MonthEnd(%d, %d) = %v, want %v", tt.year, tt.month, got, tt.want)
		}
	}
}
