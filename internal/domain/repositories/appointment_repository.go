package repositories

import (
	"context"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
)

// AppointmentRepository defines the interface for appointment data operations.
// Implementations must reject a second appointment for the same
// (doctor, date, time) with a conflict error.
type AppointmentRepository interface {
	// Create persists a new appointment
	Create(ctx context.Context, appointment *entities.Appointment) error

	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// ListByEmail retrieves a patient's appointments, most recent date first
	ListByEmail(ctx context.Context, email string) ([]*entities.Appointment, error)

	// BookedTimes returns the times already claimed for a doctor on a date
	BookedTimes(ctx context.Context, doctorID string, date entities.CivilDate) ([]entities.TimeOfDay, error)
}
