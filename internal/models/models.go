package models

import "time"

// Booking statuses.
const (
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

// Doctor represents a member of the clinic roster. Doctors are never hard
// deleted; IsActive=false hides them from the public roster while keeping
// historical bookings intact.
type Doctor struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Contact    string    `json:"contact"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// AvailabilityRule is a recurring weekly template: on DayOfWeek the doctor
// accepts appointments between StartTime and EndTime, cut into slots of
// SlotDuration minutes. At most one active rule exists per doctor per weekday.
type AvailabilityRule struct {
	ID           int64  `json:"id"`
	DoctorID     int64  `json:"doctor_id"`
	DayOfWeek    int    `json:"day_of_week"`   // 0=Sunday .. 6=Saturday
	StartTime    string `json:"start_time"`    // "09:00"
	EndTime      string `json:"end_time"`      // "17:00"
	SlotDuration int    `json:"slot_duration"` // minutes
	IsActive     bool   `json:"is_active"`
}

// BlockedDate removes all slots for a doctor on one calendar date,
// overriding any matching weekly rule.
type BlockedDate struct {
	ID       int64  `json:"id"`
	DoctorID int64  `json:"doctor_id"`
	Date     string `json:"blocked_date"` // "2006-01-02"
	Reason   string `json:"reason,omitempty"`
}

// Booking is one confirmed (or historical) appointment. DoctorName and
// Department are filled only by listing queries that join the roster; a
// booking never owns its doctor.
type Booking struct {
	ID               int64     `json:"id"`
	PatientName      string    `json:"patient_name"`
	PatientEmail     string    `json:"patient_email,omitempty"`
	PatientPhone     string    `json:"patient_phone"`
	DoctorID         int64     `json:"doctor_id"`
	AppointmentDate  string    `json:"appointment_date"` // "2006-01-02"
	AppointmentTime  string    `json:"appointment_time"` // "HH:MM"
	IsFollowup       bool      `json:"is_followup"`
	Notes            string    `json:"notes,omitempty"`
	Status           string    `json:"status"`
	BookingReference string    `json:"booking_reference"`
	CreatedAt        time.Time `json:"created_at"`

	DoctorName string `json:"doctor_name,omitempty"`
	Department string `json:"department,omitempty"`
}

// OccupiesSlot reports whether the booking still holds its
// (doctor, date, time) slot. Only cancellation frees a slot; completed and
// no-show bookings keep occupying it historically.
func (b *Booking) OccupiesSlot() bool {
	return b.Status != StatusCancelled
}

// ValidStatus reports whether s is one of the known booking statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// CanTransition reports whether a booking may move from one status to
// another. Only confirmed bookings have outgoing transitions; completed,
// cancelled and no-show are terminal.
func CanTransition(from, to string) bool {
	if from != StatusConfirmed {
		return false
	}
	switch to {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}
