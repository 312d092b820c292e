// Package booking implements the transactional booking path: validation,
// slot-grid conformance, conflict detection and the ledger commit, plus
// status transitions after creation.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"clinicbook/internal/database"
	"clinicbook/internal/errs"
	"clinicbook/internal/metrics"
	"clinicbook/internal/models"
	"clinicbook/internal/notify"
)

// maxReferenceAttempts bounds regeneration when a booking reference collides
// with an existing one. Exhaustion is treated as a store failure.
const maxReferenceAttempts = 5

// Ledger is the persistence surface the service commits through.
type Ledger interface {
	InsertBooking(ctx context.Context, b *models.Booking) error
	SlotTaken(ctx context.Context, doctorID int64, date, timeOfDay string) (bool, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status string) (bool, error)
	UpdateBookingNotes(ctx context.Context, id int64, notes string) (bool, error)
	GetDoctor(ctx context.Context, id int64) (*models.Doctor, error)
}

// SlotSource yields the full slot grid a schedule defines for a doctor/date.
type SlotSource interface {
	SlotGrid(ctx context.Context, doctorID int64, date string) ([]string, error)
}

// Request is a booking creation request.
type Request struct {
	PatientName     string `json:"patientName"`
	PatientEmail    string `json:"patientEmail,omitempty"`
	PatientPhone    string `json:"patientPhone"`
	DoctorID        int64  `json:"doctorId"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	IsFollowup      bool   `json:"isFollowup,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// Service is the booking transaction manager.
type Service struct {
	ledger   Ledger
	slots    SlotSource
	notifier notify.Notifier
	logger   *zerolog.Logger

	now          func() time.Time
	newReference func() string
}

// NewService creates a booking service.
func NewService(ledger Ledger, slots SlotSource, notifier notify.Notifier, logger *zerolog.Logger) *Service {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Service{
		ledger:       ledger,
		slots:        slots,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
		newReference: NewReference,
	}
}

// CreateBooking validates the request, re-checks slot availability and
// commits a confirmed booking. The pre-checks are a fast path for friendly
// rejections; the ledger's unique index is what actually decides a race.
func (s *Service) CreateBooking(ctx context.Context, req Request) (*models.Booking, error) {
	doctor, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	grid, err := s.slots.SlotGrid(ctx, req.DoctorID, req.AppointmentDate)
	if err != nil {
		return nil, errs.Store("resolve slot grid", err)
	}
	if !containsSlot(grid, req.AppointmentTime) {
		return nil, errs.Validation("appointmentTime",
			fmt.Sprintf("%s is not an offered slot on %s", req.AppointmentTime, req.AppointmentDate))
	}

	taken, err := s.ledger.SlotTaken(ctx, req.DoctorID, req.AppointmentDate, req.AppointmentTime)
	if err != nil {
		return nil, errs.Store("check slot occupancy", err)
	}
	if taken {
		metrics.IncBookingConflict()
		return nil, errs.Conflict(req.DoctorID, req.AppointmentDate, req.AppointmentTime)
	}

	b := &models.Booking{
		PatientName:     req.PatientName,
		PatientEmail:    req.PatientEmail,
		PatientPhone:    req.PatientPhone,
		DoctorID:        req.DoctorID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		IsFollowup:      req.IsFollowup,
		Notes:           req.Notes,
		Status:          models.StatusConfirmed,
	}

	if err := s.commit(ctx, b); err != nil {
		return nil, err
	}

	metrics.IncBookingCreated()
	s.logger.Info().
		Int64("doctor_id", b.DoctorID).
		Str("date", b.AppointmentDate).
		Str("time", b.AppointmentTime).
		Str("reference", b.BookingReference).
		Msg("booking created")

	if b.PatientEmail != "" {
		s.dispatchConfirmation(b, doctor)
	}
	return b, nil
}

func (s *Service) validate(ctx context.Context, req Request) (*models.Doctor, error) {
	switch {
	case req.PatientName == "":
		return nil, errs.Validation("patientName", "required")
	case req.PatientPhone == "":
		return nil, errs.Validation("patientPhone", "required")
	case req.DoctorID == 0:
		return nil, errs.Validation("doctorId", "required")
	case req.AppointmentDate == "":
		return nil, errs.Validation("appointmentDate", "required")
	case req.AppointmentTime == "":
		return nil, errs.Validation("appointmentTime", "required")
	}

	date, err := time.Parse("2006-01-02", req.AppointmentDate)
	if err != nil {
		return nil, errs.Validation("appointmentDate", "expected YYYY-MM-DD")
	}

	// Only past dates are rejected; any time of day on today's date is
	// still bookable.
	today := s.now()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return nil, errs.Validation("appointmentDate", "cannot book appointments in the past")
	}

	doctor, err := s.ledger.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, errs.Store("fetch doctor", err)
	}
	if doctor == nil {
		return nil, errs.NotFound("doctor", req.DoctorID)
	}
	if !doctor.IsActive {
		return nil, errs.Validation("doctorId", "doctor is not accepting appointments")
	}
	return doctor, nil
}

// commit inserts the booking, regenerating the reference a bounded number of
// times if it collides. A slot conflict detected by the unique index is
// returned as-is; it is the authoritative answer.
func (s *Service) commit(ctx context.Context, b *models.Booking) error {
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		b.BookingReference = s.newReference()

		err := s.ledger.InsertBooking(ctx, b)
		if err == nil {
			return nil
		}
		if errors.Is(err, database.ErrReferenceTaken) {
			s.logger.Warn().
				Str("reference", b.BookingReference).
				Int("attempt", attempt+1).
				Msg("booking reference collision, regenerating")
			continue
		}
		if errs.IsConflict(err) {
			metrics.IncBookingConflict()
			return err
		}
		return errs.Store("insert booking", err)
	}
	return errs.Store("insert booking",
		fmt.Errorf("reference generation exhausted after %d attempts", maxReferenceAttempts))
}

// dispatchConfirmation sends the confirmation email without blocking or
// failing the booking. Delivery errors are logged and counted only.
func (s *Service) dispatchConfirmation(b *models.Booking, doctor *models.Doctor) {
	c := notify.Confirmation{
		PatientName:      b.PatientName,
		PatientEmail:     b.PatientEmail,
		DoctorName:       doctor.Name,
		AppointmentDate:  b.AppointmentDate,
		AppointmentTime:  b.AppointmentTime,
		BookingReference: b.BookingReference,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.notifier.SendConfirmation(ctx, c); err != nil {
			metrics.IncNotification("failed")
			s.logger.Error().Err(err).
				Str("reference", c.BookingReference).
				Msg("confirmation delivery failed")
			return
		}
		metrics.IncNotification("sent")
	}()
}

// Update applies a status transition and/or a notes change to a booking.
type Update struct {
	Status string
	Notes  *string
}

// UpdateBooking changes a booking's status or notes. Status changes follow
// the transition rules: only confirmed bookings move, and only to completed,
// cancelled or no-show.
func (s *Service) UpdateBooking(ctx context.Context, id int64, upd Update) error {
	b, err := s.ledger.GetBooking(ctx, id)
	if err != nil {
		return errs.Store("fetch booking", err)
	}
	if b == nil {
		return errs.NotFound("booking", id)
	}

	if upd.Status != "" && upd.Status != b.Status {
		if !models.ValidStatus(upd.Status) {
			return errs.Validation("status", fmt.Sprintf("unknown status %q", upd.Status))
		}
		if !models.CanTransition(b.Status, upd.Status) {
			return errs.Validation("status",
				fmt.Sprintf("cannot change a %s booking to %s", b.Status, upd.Status))
		}
		if _, err := s.ledger.UpdateBookingStatus(ctx, id, upd.Status); err != nil {
			return errs.Store("update booking status", err)
		}
		metrics.IncBookingStatusChanged(upd.Status)
		s.logger.Info().
			Int64("booking_id", id).
			Str("from", b.Status).
			Str("to", upd.Status).
			Msg("booking status changed")
	}

	if upd.Notes != nil {
		if _, err := s.ledger.UpdateBookingNotes(ctx, id, *upd.Notes); err != nil {
			return errs.Store("update booking notes", err)
		}
	}
	return nil
}

func containsSlot(grid []string, t string) bool {
	for _, s := range grid {
		if s == t {
			return true
		}
	}
	return false
}
