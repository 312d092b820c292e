package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports missing or malformed caller input. It is raised
// before any store access and never wraps a persistence failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError for a field.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError reports that a slot is already held by a non-cancelled
// booking. It is a domain outcome, not a failure; callers are expected to
// offer the patient another slot.
type ConflictError struct {
	DoctorID int64
	Date     string
	Time     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %s %s for doctor %d is already booked", e.Date, e.Time, e.DoctorID)
}

// Conflict builds a ConflictError for a slot.
func Conflict(doctorID int64, date, timeOfDay string) error {
	return &ConflictError{DoctorID: doctorID, Date: date, Time: timeOfDay}
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// StoreError wraps an unexpected persistence failure. The wrapped cause is
// for logs only; callers surface a generic failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err as a StoreError for operation op.
func Store(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// NotificationError wraps a confirmation delivery failure. It is logged and
// dropped; it never reaches the booking caller.
type NotificationError struct {
	Recipient string
	Err       error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Recipient, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}
