package database

import (
	"context"
	"database/sql"
	"fmt"

	"clinicbook/internal/errs"
	"clinicbook/internal/models"
	"clinicbook/internal/slots"
)

// RuleInput is one weekly rule in a schedule replacement.
type RuleInput struct {
	DayOfWeek    int    `json:"dayOfWeek"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	SlotDuration int    `json:"slotDuration"`
}

// GetActiveRules returns all active weekly rules for a doctor ordered by
// weekday.
func (db *DB) GetActiveRules(ctx context.Context, doctorID int64) ([]models.AvailabilityRule, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, doctor_id, day_of_week, start_time, end_time, slot_duration, is_active
		FROM availability_rules
		WHERE doctor_id = ? AND is_active = 1
		ORDER BY day_of_week, start_time`,
		doctorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.AvailabilityRule
	for rows.Next() {
		var r models.AvailabilityRule
		if err := rows.Scan(&r.ID, &r.DoctorID, &r.DayOfWeek, &r.StartTime, &r.EndTime, &r.SlotDuration, &r.IsActive); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// GetRuleForDay returns the active rule for a doctor on a weekday
// (0=Sunday..6=Saturday), or (nil, nil) when the day is unscheduled.
func (db *DB) GetRuleForDay(ctx context.Context, doctorID int64, dayOfWeek int) (*models.AvailabilityRule, error) {
	var r models.AvailabilityRule
	err := db.QueryRowContext(ctx, `
		SELECT id, doctor_id, day_of_week, start_time, end_time, slot_duration, is_active
		FROM availability_rules
		WHERE doctor_id = ? AND day_of_week = ? AND is_active = 1
		LIMIT 1`,
		doctorID, dayOfWeek,
	).Scan(&r.ID, &r.DoctorID, &r.DayOfWeek, &r.StartTime, &r.EndTime, &r.SlotDuration, &r.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ReplaceRules swaps a doctor's whole weekly schedule in one transaction:
// every active rule is deactivated, then the new set is inserted. A reader
// never observes the old and new sets mixed, and a failed insert rolls the
// deactivation back.
func (db *DB) ReplaceRules(ctx context.Context, doctorID int64, rules []RuleInput) error {
	seen := make(map[int]bool, len(rules))
	for i, r := range rules {
		if err := validateRule(i, r); err != nil {
			return err
		}
		// At most one active rule per weekday; two rules for the same day
		// would make GetRuleForDay's answer arbitrary.
		if seen[r.DayOfWeek] {
			return errs.Validation(fmt.Sprintf("availability[%d]", i),
				fmt.Sprintf("duplicate rule for dayOfWeek %d", r.DayOfWeek))
		}
		seen[r.DayOfWeek] = true
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace rules: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE availability_rules SET is_active = 0 WHERE doctor_id = ? AND is_active = 1",
		doctorID,
	); err != nil {
		return fmt.Errorf("deactivate rules: %w", err)
	}

	for _, r := range rules {
		duration := r.SlotDuration
		if duration == 0 {
			duration = 30
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO availability_rules (doctor_id, day_of_week, start_time, end_time, slot_duration)
			VALUES (?, ?, ?, ?, ?)`,
			doctorID, r.DayOfWeek, r.StartTime, r.EndTime, duration,
		); err != nil {
			return fmt.Errorf("insert rule for day %d: %w", r.DayOfWeek, err)
		}
	}

	return tx.Commit()
}

func validateRule(i int, r RuleInput) error {
	field := fmt.Sprintf("availability[%d]", i)
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return errs.Validation(field, "dayOfWeek must be 0 (Sunday) through 6 (Saturday)")
	}
	start, startErr := slots.Minutes(r.StartTime)
	end, endErr := slots.Minutes(r.EndTime)
	if startErr != nil || endErr != nil {
		return errs.Validation(field, "startTime and endTime must be HH:MM")
	}
	if start >= end {
		return errs.Validation(field, "startTime must be before endTime")
	}
	if r.SlotDuration < 0 {
		return errs.Validation(field, "slotDuration must be positive")
	}
	return nil
}

// ListBlockedDates returns blocked dates for a doctor ordered by date.
func (db *DB) ListBlockedDates(ctx context.Context, doctorID int64) ([]models.BlockedDate, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, doctor_id, blocked_date, COALESCE(reason, '')
		FROM blocked_dates
		WHERE doctor_id = ?
		ORDER BY blocked_date`,
		doctorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocked []models.BlockedDate
	for rows.Next() {
		var b models.BlockedDate
		if err := rows.Scan(&b.ID, &b.DoctorID, &b.Date, &b.Reason); err != nil {
			return nil, err
		}
		blocked = append(blocked, b)
	}
	return blocked, rows.Err()
}

// AddBlockedDate blocks one calendar date for a doctor. Blocking the same
// date twice updates the reason instead of failing.
func (db *DB) AddBlockedDate(ctx context.Context, doctorID int64, date, reason string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO blocked_dates (doctor_id, blocked_date, reason)
		VALUES (?, ?, ?)
		ON CONFLICT(doctor_id, blocked_date) DO UPDATE SET reason = excluded.reason`,
		doctorID, date, reason,
	)
	return err
}

// RemoveBlockedDate unblocks a date. Removing an unknown date is a no-op.
func (db *DB) RemoveBlockedDate(ctx context.Context, doctorID int64, date string) error {
	_, err := db.ExecContext(ctx,
		"DELETE FROM blocked_dates WHERE doctor_id = ? AND blocked_date = ?",
		doctorID, date,
	)
	return err
}

// IsDateBlocked reports whether a doctor has a blocked-date entry for date.
func (db *DB) IsDateBlocked(ctx context.Context, doctorID int64, date string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM blocked_dates WHERE doctor_id = ? AND blocked_date = ?",
		doctorID, date,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
