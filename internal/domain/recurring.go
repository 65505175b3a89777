package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kassa-app/kassa-backend/internal/util"
)

type Frequency string

const (
	FrequencyWeek  Frequency = "week"
	FrequencyMonth Frequency = "month"
	FrequencyYear  Frequency = "year"
)

// RecurringConfig is a recurrence rule for a series of ledger entries.
// Interval is the number of occurrences the series generates; 0 means the
// series is unbounded and is expanded lazily up to a caller-supplied horizon.
// Every is the step multiplier applied to Frequency (every=2, frequency=week
// gives a biweekly series). StartDate is the date of occurrence index 1.
type RecurringConfig struct {
	ID        uuid.UUID  `json:"id"`
	UserID    string     `json:"-"`
	Frequency Frequency  `json:"frequency"`
	Interval  int32      `json:"interval"`
	Every     int32      `json:"every"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// OccurrenceDate returns the date of the occurrence with the given 1-based
// index. It is pure and strictly increasing in index. Indexes below 1 are
// clamped to 1.
//
// Month and year steps clamp day-of-month overflow to the last day of the
// target month while staying anchored to the start date's day (a series
// started Jan 31 lands on Feb 28/29, then Mar 31, never drifting to Mar 28).
// Exclusions are matched by exact date equality, so this rule must not
// change.
func (c *RecurringConfig) OccurrenceDate(index int) time.Time {
	if index < 1 {
		index = 1
	}

	every := int(c.Every)
	if every < 1 {
		every = 1
	}
	steps := every * (index - 1)
	start := util.NormalizeDate(c.StartDate)

	switch c.Frequency {
	case FrequencyWeek:
		return start.AddDate(0, 0, 7*steps)
	case FrequencyYear:
		return util.ClampedDate(start.Year()+steps, start.Month(), start.Day())
	default:
		// Month is also the fallback for unknown frequency values, matching
		// how stored rows with a missing frequency are interpreted.
		months := int(start.Month()) - 1 + steps
		year := start.Year() + months/12
		return util.ClampedDate(year, time.Month(months%12+1), start.Day())
	}
}

// OccurrenceCount returns how many occurrences the series generates for
// display. A finite series yields exactly Interval occurrences. An unbounded
// series yields occurrences up to the horizon, further capped by EndDate when
// one is set.
func (c *RecurringConfig) OccurrenceCount(horizon time.Time) int {
	if c.Interval > 0 {
		return int(c.Interval)
	}

	cap := util.NormalizeDate(horizon)
	if c.EndDate != nil {
		end := util.NormalizeDate(*c.EndDate)
		if end.Before(cap) {
			cap = end
		}
	}

	count := 0
	for !c.OccurrenceDate(count + 1).After(cap) {
		count++
	}
	return count
}

// RecurringConfigRepository defines store operations for recurrence rules.
type RecurringConfigRepository interface {
	Create(ctx context.Context, config *RecurringConfig) (*RecurringConfig, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*RecurringConfig, error)
	ListByUser(ctx context.Context, userID string) ([]*RecurringConfig, error)
	Update(ctx context.Context, config *RecurringConfig) (*RecurringConfig, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}
