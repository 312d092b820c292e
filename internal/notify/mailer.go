package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"golang.org/x/time/rate"

	"clinicbook/internal/errs"
)

// MailerConfig configures the SMTP mailer.
type MailerConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	RatePerSecond float64
}

// Mailer sends confirmation emails over SMTP. Sends are rate limited so a
// burst of bookings cannot trip the upstream relay.
type Mailer struct {
	config  MailerConfig
	limiter *rate.Limiter
	send    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates an SMTP mailer.
func NewMailer(cfg MailerConfig) *Mailer {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	return &Mailer{
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		send:    smtp.SendMail,
	}
}

// SendConfirmation delivers one confirmation email.
func (m *Mailer) SendConfirmation(ctx context.Context, c Confirmation) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return &errs.NotificationError{Recipient: c.PatientEmail, Err: err}
	}

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	msg := buildMessage(m.config.From, c)
	if err := m.send(addr, auth, m.config.From, []string{c.PatientEmail}, msg); err != nil {
		return &errs.NotificationError{Recipient: c.PatientEmail, Err: err}
	}
	return nil
}

func buildMessage(from string, c Confirmation) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", c.PatientEmail)
	b.WriteString("Subject: Appointment Confirmation\r\n")
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")

	fmt.Fprintf(&b, "Dear %s,\r\n\r\n", c.PatientName)
	b.WriteString("Your appointment has been booked with the following details:\r\n\r\n")
	fmt.Fprintf(&b, "  Doctor:    %s\r\n", c.DoctorName)
	fmt.Fprintf(&b, "  Date:      %s\r\n", c.AppointmentDate)
	fmt.Fprintf(&b, "  Time:      %s\r\n", c.AppointmentTime)
	fmt.Fprintf(&b, "  Reference: %s\r\n\r\n", c.BookingReference)
	b.WriteString("Please arrive 15 minutes before your scheduled appointment time.\r\n")
	fmt.Fprintf(&b, "If you need to cancel or reschedule, quote your booking reference: %s\r\n", c.BookingReference)

	return []byte(b.String())
}
