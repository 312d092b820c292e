package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"

	"clinicbook/internal/errs"
	"clinicbook/internal/models"
)

// ErrReferenceTaken reports that a generated booking reference collided with
// an existing one. Callers regenerate and retry.
var ErrReferenceTaken = errors.New("booking reference already taken")

// InsertBooking writes a confirmed booking. The partial unique index on
// (doctor_id, appointment_date, appointment_time) is the authoritative
// conflict detector: losing a race against a concurrent insert surfaces here
// as a ConflictError, a reference collision as ErrReferenceTaken.
func (db *DB) InsertBooking(ctx context.Context, b *models.Booking) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO bookings (
			patient_name, patient_email, patient_phone, doctor_id,
			appointment_date, appointment_time, is_followup, notes,
			status, booking_reference
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.PatientName, b.PatientEmail, b.PatientPhone, b.DoctorID,
		b.AppointmentDate, b.AppointmentTime, b.IsFollowup, b.Notes,
		b.Status, b.BookingReference,
	)
	if err != nil {
		return classifyInsertError(err, b)
	}

	b.ID, err = res.LastInsertId()
	return err
}

func classifyInsertError(err error, b *models.Booking) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return err
	}
	if strings.Contains(sqliteErr.Error(), "booking_reference") {
		return ErrReferenceTaken
	}
	return errs.Conflict(b.DoctorID, b.AppointmentDate, b.AppointmentTime)
}

// SlotTaken reports whether a non-cancelled booking already holds the slot.
// This is the fast-path pre-check only; InsertBooking remains authoritative.
func (db *DB) SlotTaken(ctx context.Context, doctorID int64, date, timeOfDay string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE doctor_id = ? AND appointment_date = ? AND appointment_time = ?
		AND status != 'cancelled'`,
		doctorID, date, timeOfDay,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// OccupiedTimes returns the appointment times held by non-cancelled bookings
// for a doctor on a date.
func (db *DB) OccupiedTimes(ctx context.Context, doctorID int64, date string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT appointment_time FROM bookings
		WHERE doctor_id = ? AND appointment_date = ? AND status != 'cancelled'`,
		doctorID, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// GetBooking returns a booking by id, or (nil, nil) when unknown.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, patient_name, COALESCE(patient_email, ''), patient_phone,
		       doctor_id, appointment_date, appointment_time, is_followup,
		       COALESCE(notes, ''), status, booking_reference, created_at
		FROM bookings WHERE id = ?`, id)

	var b models.Booking
	err := row.Scan(
		&b.ID, &b.PatientName, &b.PatientEmail, &b.PatientPhone,
		&b.DoctorID, &b.AppointmentDate, &b.AppointmentTime, &b.IsFollowup,
		&b.Notes, &b.Status, &b.BookingReference, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// BookingFilter narrows ListBookings. Zero values mean "no filter".
type BookingFilter struct {
	Status   string
	Date     string
	DoctorID int64
	Search   string // matches patient name or booking reference
}

// ListBookings returns bookings joined with the doctor's name and department,
// newest appointment first. The join is LEFT so history survives a doctor the
// roster no longer resolves.
func (db *DB) ListBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	query := `
		SELECT b.id, b.patient_name, COALESCE(b.patient_email, ''), b.patient_phone,
		       b.doctor_id, b.appointment_date, b.appointment_time, b.is_followup,
		       COALESCE(b.notes, ''), b.status, b.booking_reference, b.created_at,
		       COALESCE(d.name, ''), COALESCE(d.department, '')
		FROM bookings b
		LEFT JOIN doctors d ON b.doctor_id = d.id
		WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += " AND b.status = ?"
		args = append(args, f.Status)
	}
	if f.Date != "" {
		query += " AND b.appointment_date = ?"
		args = append(args, f.Date)
	}
	if f.DoctorID != 0 {
		query += " AND b.doctor_id = ?"
		args = append(args, f.DoctorID)
	}
	if f.Search != "" {
		query += " AND (b.patient_name LIKE ? OR b.booking_reference LIKE ?)"
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}

	query += " ORDER BY b.appointment_date DESC, b.appointment_time DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(
			&b.ID, &b.PatientName, &b.PatientEmail, &b.PatientPhone,
			&b.DoctorID, &b.AppointmentDate, &b.AppointmentTime, &b.IsFollowup,
			&b.Notes, &b.Status, &b.BookingReference, &b.CreatedAt,
			&b.DoctorName, &b.Department,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateBookingStatus sets a booking's status. Returns false when the id is
// unknown. Transition rules are enforced above the ledger.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) (bool, error) {
	res, err := db.ExecContext(ctx,
		"UPDATE bookings SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateBookingNotes replaces a booking's free-text notes.
func (db *DB) UpdateBookingNotes(ctx context.Context, id int64, notes string) (bool, error) {
	res, err := db.ExecContext(ctx,
		"UPDATE bookings SET notes = ? WHERE id = ?", notes, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
