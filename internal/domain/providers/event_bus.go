package providers

import (
	"context"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to appointment events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.AppointmentEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.AppointmentEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelAppointments carries every appointment event
	EventChannelAppointments = "appointments:events"

	// EventChannelDoctorPrefix is the prefix for doctor-specific channels
	EventChannelDoctorPrefix = "doctor:"
)

// GetDoctorChannel returns the channel name for a specific doctor
func GetDoctorChannel(doctorID string) string {
	return EventChannelDoctorPrefix + doctorID
}
