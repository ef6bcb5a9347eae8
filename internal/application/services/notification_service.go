package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	"github.com/zatekoja/streamlinecare/internal/domain/providers"
	"github.com/zatekoja/streamlinecare/internal/domain/repositories"
)

// Notification channels understood by the service
const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// NotificationService sends booking confirmations
type NotificationService struct {
	hospitals repositories.HospitalRepository
	doctors   repositories.DoctorRepository
	notifiers []providers.Notifier
	format    entities.DisplayFormat
	logger    zerolog.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	hospitals repositories.HospitalRepository,
	doctors repositories.DoctorRepository,
	format entities.DisplayFormat,
	logger zerolog.Logger,
	notifiers ...providers.Notifier,
) *NotificationService {
	return &NotificationService{
		hospitals: hospitals,
		doctors:   doctors,
		notifiers: notifiers,
		format:    format,
		logger:    logger,
	}
}

// ConfirmationContext contains all data needed for confirmation rendering
type ConfirmationContext struct {
	PatientName  string
	HospitalName string
	DoctorName   string
	Date         string
	Time         string
}

// RenderConfirmation renders the patient-facing confirmation text
func RenderConfirmation(c ConfirmationContext) string {
	doctor := strings.TrimSpace(strings.TrimPrefix(c.DoctorName, "Dr."))
	return fmt.Sprintf(
		"Hello %s, your appointment at %s with Dr. %s is confirmed for %s at %s. Please arrive 15 minutes early. Stay safe!",
		c.PatientName, c.HospitalName, doctor, c.Date, c.Time,
	)
}

// Run consumes booked events from bus until ctx is cancelled
func (n *NotificationService) Run(ctx context.Context, bus providers.EventBus) error {
	events, err := bus.Subscribe(ctx, providers.EventChannelAppointments)
	if err != nil {
		return fmt.Errorf("failed to subscribe to appointment events: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if event == nil || event.EventType != entities.AppointmentEventTypeBooked || event.Appointment == nil {
				continue
			}
			if err := n.SendBookingConfirmation(ctx, event.Appointment); err != nil {
				n.logger.Warn().Err(err).Str("appointment_id", event.Appointment.ID).Msg("booking confirmation not fully delivered")
			}
		}
	}
}

// SendBookingConfirmation sends the confirmation over every configured channel.
// Delivery failures are collected and returned; nothing is retried.
func (n *NotificationService) SendBookingConfirmation(ctx context.Context, appt *entities.Appointment) error {
	if len(n.notifiers) == 0 {
		return nil
	}

	body := RenderConfirmation(n.confirmationContext(ctx, appt))

	var errs []error
	for _, notifier := range n.notifiers {
		msg := providers.Message{
			Subject: "Appointment confirmed",
			Body:    body,
		}
		switch notifier.Channel() {
		case ChannelSMS:
			msg.To = appt.Phone
		case ChannelEmail:
			msg.To = appt.Email
		default:
			continue
		}
		if msg.To == "" {
			continue
		}

		if err := notifier.Send(ctx, msg); err != nil {
			n.logger.Error().Err(err).
				Str("channel", notifier.Channel()).
				Str("appointment_id", appt.ID).
				Msg("failed to send booking confirmation")
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Channel(), err))
			continue
		}
		n.logger.Info().
			Str("channel", notifier.Channel()).
			Str("appointment_id", appt.ID).
			Msg("booking confirmation sent")
	}
	return errors.Join(errs...)
}

// confirmationContext resolves display names, falling back to IDs so a
// catalog hiccup never blocks the message.
func (n *NotificationService) confirmationContext(ctx context.Context, appt *entities.Appointment) ConfirmationContext {
	c := ConfirmationContext{
		PatientName:  appt.FullName,
		HospitalName: appt.HospitalID,
		DoctorName:   appt.DoctorID,
		Date:         appt.Date.String(),
		Time:         appt.Time.Format(n.format),
	}
	if hospital, err := n.hospitals.GetByID(ctx, appt.HospitalID); err == nil {
		c.HospitalName = hospital.Name
	}
	if doctor, err := n.doctors.GetByID(ctx, appt.DoctorID); err == nil {
		c.DoctorName = doctor.Name
	}
	return c
}
