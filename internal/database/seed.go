package database

import (
	"context"
	"fmt"
)

// EnsureSampleRoster inserts a demo roster with Monday–Friday 09:00–17:00
// 30-minute schedules when the doctors table is empty. Used by fresh
// installs; a no-op once any doctor exists.
func (db *DB) EnsureSampleRoster(ctx context.Context) error {
	count, err := db.CountDoctors(ctx)
	if err != nil {
		return fmt.Errorf("count doctors: %w", err)
	}
	if count > 0 {
		return nil
	}

	sample := []struct {
		name, department, contact string
	}{
		{"Dr. Sarah Johnson", "Cardiology", "+1-555-0101"},
		{"Dr. Michael Chen", "Neurology", "+1-555-0102"},
		{"Dr. Emily Rodriguez", "Pediatrics", "+1-555-0103"},
		{"Dr. David Kim", "Orthopedics", "+1-555-0104"},
		{"Dr. Lisa Thompson", "Dermatology", "+1-555-0105"},
	}

	weekdays := []RuleInput{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", SlotDuration: 30},
		{DayOfWeek: 2, StartTime: "09:00", EndTime: "17:00", SlotDuration: 30},
		{DayOfWeek: 3, StartTime: "09:00", EndTime: "17:00", SlotDuration: 30},
		{DayOfWeek: 4, StartTime: "09:00", EndTime: "17:00", SlotDuration: 30},
		{DayOfWeek: 5, StartTime: "09:00", EndTime: "17:00", SlotDuration: 30},
	}

	for _, s := range sample {
		id, err := db.CreateDoctor(ctx, s.name, s.department, s.contact)
		if err != nil {
			return fmt.Errorf("seed doctor %s: %w", s.name, err)
		}
		if err := db.ReplaceRules(ctx, id, weekdays); err != nil {
			return fmt.Errorf("seed schedule for %s: %w", s.name, err)
		}
	}
	return nil
}
