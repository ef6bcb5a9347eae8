package entities

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentEventType represents the type of appointment event
type AppointmentEventType string

const (
	AppointmentEventTypeBooked AppointmentEventType = "appointment.booked"
)

// AppointmentEvent is published after an appointment has been persisted
type AppointmentEvent struct {
	ID          string               `json:"id"`
	EventType   AppointmentEventType `json:"event_type"`
	Timestamp   time.Time            `json:"timestamp"`
	Appointment *Appointment         `json:"appointment"`
}

// NewAppointmentBookedEvent creates a booked event for appt
func NewAppointmentBookedEvent(appt *Appointment) *AppointmentEvent {
	return &AppointmentEvent{
		ID:          uuid.NewString(),
		EventType:   AppointmentEventTypeBooked,
		Timestamp:   time.Now().UTC(),
		Appointment: appt,
	}
}
