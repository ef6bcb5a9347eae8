package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	"github.com/zatekoja/streamlinecare/internal/domain/repositories"
	"github.com/zatekoja/streamlinecare/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/streamlinecare/pkg/errors"
)

// pqUniqueViolation is the SQLSTATE for unique_violation
const pqUniqueViolation = "23505"

var appointmentColumns = []interface{}{
	"id", "full_name", "email", "phone", "hospital_id", "doctor_id",
	"appointment_date", "appointment_time", "reason", "created_at",
}

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new appointment. The (doctor_id, appointment_date,
// appointment_time) unique constraint turns a lost race into a conflict error.
func (a *AppointmentAdapter) Create(ctx context.Context, appointment *entities.Appointment) error {
	record := goqu.Record{
		"id":               appointment.ID,
		"full_name":        appointment.FullName,
		"email":            appointment.Email,
		"phone":            appointment.Phone,
		"hospital_id":      appointment.HospitalID,
		"doctor_id":        appointment.DoctorID,
		"appointment_date": appointment.Date.String(),
		"appointment_time": int(appointment.Time),
		"reason":           appointment.Reason,
		"created_at":       appointment.CreatedAt,
	}

	query, args, err := a.db.Insert("appointments").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return apperrors.NewConflictError(fmt.Sprintf("slot %s is already booked", appointment.SlotKey()))
	}
	if err != nil {
		return apperrors.NewInternalError("failed to create appointment", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

func scanAppointment(row rowScanner) (*entities.Appointment, error) {
	appt := &entities.Appointment{}
	err := row.Scan(
		&appt.ID,
		&appt.FullName,
		&appt.Email,
		&appt.Phone,
		&appt.HospitalID,
		&appt.DoctorID,
		&appt.Date,
		&appt.Time,
		&appt.Reason,
		&appt.CreatedAt,
	)
	return appt, err
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment, err := scanAppointment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}
	return appointment, nil
}

// ListByEmail retrieves a patient's appointments, latest first
func (a *AppointmentAdapter) ListByEmail(ctx context.Context, email string) ([]*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Func("LOWER", goqu.C("email")).Eq(strings.ToLower(email))).
		Order(goqu.C("appointment_date").Desc(), goqu.C("appointment_time").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	defer rows.Close()

	appointments := make([]*entities.Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}
		appointments = append(appointments, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate appointments", err)
	}
	return appointments, nil
}

// BookedTimes returns the slot times claimed for a doctor on a date
func (a *AppointmentAdapter) BookedTimes(ctx context.Context, doctorID string, date entities.CivilDate) ([]entities.TimeOfDay, error) {
	query, args, err := a.db.Select("appointment_time").
		From("appointments").
		Where(goqu.Ex{
			"doctor_id":        doctorID,
			"appointment_date": date.String(),
		}).
		Order(goqu.C("appointment_time").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load booked times", err)
	}
	defer rows.Close()

	times := make([]entities.TimeOfDay, 0)
	for rows.Next() {
		var t entities.TimeOfDay
		if err := rows.Scan(&t); err != nil {
			return nil, apperrors.NewInternalError("failed to scan booked time", err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate booked times", err)
	}
	return times, nil
}
