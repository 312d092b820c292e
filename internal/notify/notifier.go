// Package notify delivers booking confirmations. Delivery is best-effort by
// contract: failures are logged and counted, never returned to the booking
// path.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Confirmation carries everything a confirmation message needs.
type Confirmation struct {
	PatientName      string
	PatientEmail     string
	DoctorName       string
	AppointmentDate  string
	AppointmentTime  string
	BookingReference string
}

// Notifier sends a confirmation message.
type Notifier interface {
	SendConfirmation(ctx context.Context, c Confirmation) error
}

// NopNotifier discards confirmations. Used when no SMTP host is configured.
type NopNotifier struct{}

func (NopNotifier) SendConfirmation(context.Context, Confirmation) error { return nil }

// LogNotifier logs confirmations instead of delivering them. Useful in
// development and tests.
type LogNotifier struct {
	Logger *zerolog.Logger
}

func (n LogNotifier) SendConfirmation(_ context.Context, c Confirmation) error {
	n.Logger.Info().
		Str("email", c.PatientEmail).
		Str("reference", c.BookingReference).
		Msg("confirmation (log only)")
	return nil
}
