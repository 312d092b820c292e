// Package availability answers "which slots can still be booked for this
// doctor on this date". It combines the weekly schedule, blocked-date
// exceptions and ledger occupancy; it holds no state of its own.
package availability

import (
	"context"
	"fmt"
	"time"

	"clinicbook/internal/models"
	"clinicbook/internal/slots"
)

// Store is the schedule and ledger surface the resolver reads.
type Store interface {
	GetRuleForDay(ctx context.Context, doctorID int64, dayOfWeek int) (*models.AvailabilityRule, error)
	IsDateBlocked(ctx context.Context, doctorID int64, date string) (bool, error)
	OccupiedTimes(ctx context.Context, doctorID int64, date string) ([]string, error)
}

// Resolver computes bookable slots for a doctor and date.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver over store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// ParseDate validates a YYYY-MM-DD calendar date.
func ParseDate(date string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return d, nil
}

// ResolveAvailableSlots returns the ordered bookable "HH:MM" slots for a
// doctor on a date. An unscheduled or blocked day yields an empty list, not
// an error. The result reflects the ledger at call time only; booking commits
// re-check occupancy under the ledger's uniqueness guarantee.
func (r *Resolver) ResolveAvailableSlots(ctx context.Context, doctorID int64, date string) ([]string, error) {
	grid, err := r.SlotGrid(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, nil
	}

	occupied, err := r.store.OccupiedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("fetch occupied slots: %w", err)
	}

	taken := make(map[string]struct{}, len(occupied))
	for _, t := range occupied {
		taken[t] = struct{}{}
	}

	available := make([]string, 0, len(grid))
	for _, s := range grid {
		if _, ok := taken[s]; !ok {
			available = append(available, s)
		}
	}
	return available, nil
}

// SlotGrid returns every slot the schedule defines for a doctor on a date,
// booked or not. Blocked dates win over any matching weekly rule.
func (r *Resolver) SlotGrid(ctx context.Context, doctorID int64, date string) ([]string, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	// time.Weekday numbers Sunday=0 through Saturday=6, matching the rule
	// encoding directly.
	rule, err := r.store.GetRuleForDay(ctx, doctorID, int(day.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("fetch rule: %w", err)
	}
	if rule == nil {
		return nil, nil
	}

	blocked, err := r.store.IsDateBlocked(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("check blocked date: %w", err)
	}
	if blocked {
		return nil, nil
	}

	return slots.Generate(rule.StartTime, rule.EndTime, rule.SlotDuration), nil
}
