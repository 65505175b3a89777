package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestOccurrenceDate_Weekly(t *testing.T) {
	config := &RecurringConfig{
		Frequency: FrequencyWeek,
		Every:     1,
		StartDate: date(2024, 1, 1),
	}

	tests := []struct {
		index int
		want  time.Time
	}{
		{1, date(2024, 1, 1)},
		{2, date(2024, 1, 8)},
		{5, date(2024, 1, 29)},
	}

	for _, tt := range tests {
		got := config.OccurrenceDate(tt.index)
		if !got.Equal(tt.want) {
			t.Errorf("OccurrenceDate(%d) = %v, want %v", tt.index, got, tt.want)
		}
	}
}

func TestOccurrenceDate_BiweeklyStep(t *testing.T) {
	config := &RecurringConfig{
		Frequency: FrequencyWeek,
		Every:     2,
		StartDate: date(2024, 1, 1),
	}

	if got := config.OccurrenceDate(2); !got.Equal(date(2024, 1, 15)) {
		t.Errorf("OccurrenceDate(2) = %v, want 2024-01-15", got)
	}
	if got := config.OccurrenceDate(3); !got.Equal(date(2024, 1, 29)) {
		t.Errorf("OccurrenceDate(3) = %v, want 2024-01-29", got)
	}
}

func TestOccurrenceDate_MonthlyClampsToEndOfMonth(t *testing.T) {
	// Series anchored to the 31st stays anchored: short months clamp to
	// their last day without drifting subsequent occurrences.
	config := &RecurringConfig{
		Frequency: FrequencyMonth,
		Every:     1,
		StartDate: date(2024, 1, 31),
	}

	tests := []struct {
		index int
		want  time.Time
	}{
		{1, date(2024, 1, 31)},
		{2, date(2024, 2, 29)}, // leap year
		{3, date(2024, 3, 31)}, // back to the anchor day
		{4, date(2024, 4, 30)},
		{13, date(2025, 1, 31)},
		{14, date(2025, 2, 28)}, // non-leap year
	}

	for _, tt := range tests {
		got := config.OccurrenceDate(tt.index)
		if !got.Equal(tt.want) {
			t.Errorf("OccurrenceDate(%d) = %v, want %v", tt.index, got, tt.want)
		}
	}
}

func TestOccurrenceDate_YearlyClampsLeapDay(t *testing.T) {
	config := &RecurringConfig{
		Frequency: FrequencyYear,
		Every:     1,
		StartDate: date(2024, 2, 29),
	}

	if got := config.OccurrenceDate(2); !got.Equal(date(2025, 2, 28)) {
		t.Errorf("OccurrenceDate(2) = %v, want 2025-02-28", got)
	}
	if got := config.OccurrenceDate(5); !got.Equal(date(2028, 2, 29)) {
		t.Errorf("OccurrenceDate(5) = %v, want 2028-02-29", got)
	}
}

func TestOccurrenceDate_IndexBelowOneClampsToStart(t *testing.T) {
	config := &RecurringConfig{
		Frequency: FrequencyMonth,
		Every:     1,
		StartDate: date(2024, 6, 15),
	}

	for _, index := range []int{0, -3} {
		if got := config.OccurrenceDate(index); !got.Equal(date(2024, 6, 15)) {
			t.Errorf("OccurrenceDate(%d) = %v, want start date", index, got)
		}
	}
}

func TestOccurrenceDate_Deterministic(t *testing.T) {
	config := &RecurringConfig{
		ID:        uuid.New(),
		Frequency: FrequencyMonth,
		Every:     3,
		StartDate: date(2024, 1, 30),
	}

	for index := 1; index <= 24; index++ {
		first := config.OccurrenceDate(index)
		second := config.OccurrenceDate(index)
		if !first.Equal(second) {
			t.Fatalf("OccurrenceDate(%d) not deterministic: %v != %v", index, first, second)
		}
	}
}

func TestOccurrenceDate_StrictlyMonotonic(t *testing.T) {
	configs := []*RecurringConfig{
		{Frequency: FrequencyWeek, Every: 1, StartDate: date(2024, 1, 1)},
		{Frequency: FrequencyMonth, Every: 1, StartDate: date(2024, 1, 31)},
		{Frequency: FrequencyMonth, Every: 2, StartDate: date(2023, 12, 31)},
		{Frequency: FrequencyYear, Every: 1, StartDate: date(2024, 2, 29)},
	}

	for _, config := range configs {
		for index := 1; index < 48; index++ {
			current := config.OccurrenceDate(index)
			next := config.OccurrenceDate(index + 1)
			if !current.Before(next) {
				t.Errorf("%s/every=%d: OccurrenceDate(%d)=%v not before OccurrenceDate(%d)=%v",
					config.Frequency, config.Every, index, current, index+1, next)
			}
		}
	}
}

func TestOccurrenceCount_FiniteSeriesIgnoresHorizon(t *testing.T) {
	config := &RecurringConfig{
		Frequency: FrequencyMonth,
		Every:     1,
		Interval:  12,
		StartDate: date(2024, 1, 1),
	}

	// Horizon before the series even starts does not shrink a finite series.
	if got := config.OccurrenceCount(date(2023, 1, 1)); got != 12 {
		t.Errorf("OccurrenceCount = %d, want 12", got)
	}
}

func TestOccurrenceCount_UnboundedSeriesStopsAtHorizon(t *testing.T) {
	config := &RecurringConfig{
		Frequency: FrequencyMonth,
		Every:     1,
		Interval:  0,
		StartDate: date(2024, 1, 1),
	}

	if got := config.OccurrenceCount(date(2024, 6, 30)); got != 6 {
		t.Errorf("OccurrenceCount = %d, want 6", got)
	}
	if got := config.OccurrenceCount(date(2023, 12, 31)); got != 0 {
		t.Errorf("OccurrenceCount before start = %d, want 0", got)
	}
}

func TestOccurrenceCount_UnboundedSeriesCappedByEndDate(t *testing.T) {
	end := date(2024, 3, 1)
	config := &RecurringConfig{
		Frequency: FrequencyMonth,
		Every:     1,
		Interval:  0,
		StartDate: date(2024, 1, 1),
		EndDate:   &end,
	}

	if got := config.OccurrenceCount(date(2025, 1, 1)); got != 3 {
		t.Errorf("OccurrenceCount = %d, want 3", got)
	}
}
