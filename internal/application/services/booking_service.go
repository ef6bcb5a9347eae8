package services

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/streamlinecare/internal/domain/availability"
	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	"github.com/zatekoja/streamlinecare/internal/domain/providers"
	"github.com/zatekoja/streamlinecare/internal/domain/repositories"
	apperrors "github.com/zatekoja/streamlinecare/pkg/errors"
)

// BookingRequest is an unvalidated appointment submission
type BookingRequest struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	HospitalID string `json:"hospital_id"`
	DoctorID   string `json:"doctor_id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Reason     string `json:"reason"`
}

func (r *BookingRequest) normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.HospitalID = strings.TrimSpace(r.HospitalID)
	r.DoctorID = strings.TrimSpace(r.DoctorID)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Reason = strings.TrimSpace(r.Reason)
}

// BookingService coordinates slot lookup and appointment submission
type BookingService struct {
	hospitals    repositories.HospitalRepository
	doctors      repositories.DoctorRepository
	appointments repositories.AppointmentRepository
	locker       *SlotLocker
	events       providers.EventBus
	location     *time.Location
	now          func() time.Time
	logger       zerolog.Logger
}

// BookingOption configures a BookingService
type BookingOption func(*BookingService)

// WithEventBus publishes booked events on bus
func WithEventBus(bus providers.EventBus) BookingOption {
	return func(s *BookingService) { s.events = bus }
}

// WithLocation sets the clinic time zone used to decide what "today" is
func WithLocation(loc *time.Location) BookingOption {
	return func(s *BookingService) { s.location = loc }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

// WithLogger sets the service logger
func WithLogger(logger zerolog.Logger) BookingOption {
	return func(s *BookingService) { s.logger = logger }
}

// WithSlotLocker shares a locker between services
func WithSlotLocker(locker *SlotLocker) BookingOption {
	return func(s *BookingService) { s.locker = locker }
}

// NewBookingService creates a new booking service
func NewBookingService(
	hospitals repositories.HospitalRepository,
	doctors repositories.DoctorRepository,
	appointments repositories.AppointmentRepository,
	opts ...BookingOption,
) *BookingService {
	s := &BookingService{
		hospitals:    hospitals,
		doctors:      doctors,
		appointments: appointments,
		locker:       NewSlotLocker(),
		location:     time.UTC,
		now:          time.Now,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAvailableSlots returns the open slots for a doctor on a date
func (s *BookingService) GetAvailableSlots(ctx context.Context, doctorID, date string) ([]entities.TimeOfDay, error) {
	doctorID = strings.TrimSpace(doctorID)
	day, err := s.parseSlotQuery(doctorID, date)
	if err != nil {
		return nil, err
	}

	var (
		doctor *entities.Doctor
		booked []entities.TimeOfDay
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := s.loadDoctor(gctx, doctorID)
		doctor = d
		return err
	})
	g.Go(func() error {
		times, err := s.appointments.BookedTimes(gctx, doctorID, day)
		if err != nil {
			return storeError("failed to load booked times", err)
		}
		booked = times
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if _, err := s.loadHospital(ctx, doctor.HospitalID); err != nil {
		return nil, err
	}

	slots, err := availability.Resolve(doctor.Availability, day, availability.NewBookedSlotSet(booked...))
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeConfiguration) {
			s.logger.Error().Str("doctor_id", doctorID).Msg("doctor record has no availability pattern")
		}
		return nil, err
	}
	return slots, nil
}

// GetBookedTimes returns the times already claimed for a doctor on a date, in ascending order
func (s *BookingService) GetBookedTimes(ctx context.Context, doctorID, date string) ([]entities.TimeOfDay, error) {
	doctorID = strings.TrimSpace(doctorID)
	day, err := s.parseSlotQuery(doctorID, date)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	times, err := s.appointments.BookedTimes(ctx, doctorID, day)
	if err != nil {
		return nil, storeError("failed to load booked times", err)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times, nil
}

// SubmitAppointment validates req and books the slot it names
func (s *BookingService) SubmitAppointment(ctx context.Context, req BookingRequest) (*entities.Appointment, error) {
	req.normalize()
	recordBookingMetric(ctx, bookingSubmitted)

	day, slot, err := s.validateRequest(req)
	if err != nil {
		recordBookingMetric(ctx, bookingValidationFailed)
		return nil, err
	}

	if _, err := s.loadHospital(ctx, req.HospitalID); err != nil {
		return nil, err
	}
	doctor, err := s.loadDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctor.HospitalID != req.HospitalID {
		recordBookingMetric(ctx, bookingValidationFailed)
		return nil, apperrors.NewFieldValidationError("invalid appointment request", map[string]string{
			"doctor_id": "doctor does not practise at the selected hospital",
		})
	}

	if !doctor.HasPattern() {
		s.logger.Error().Str("doctor_id", doctor.ID).Msg("doctor record has no availability pattern")
		return nil, apperrors.NewConfigurationError("doctor has no availability pattern")
	}
	if !availability.Offers(doctor.Availability, day, slot) {
		recordBookingMetric(ctx, bookingValidationFailed)
		return nil, apperrors.NewFieldValidationError("invalid appointment request", map[string]string{
			"time": fmt.Sprintf("%s is not offered on %s", slot, day.Weekday()),
		})
	}

	appt := &entities.Appointment{
		ID:         uuid.NewString(),
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		HospitalID: req.HospitalID,
		DoctorID:   req.DoctorID,
		Date:       day,
		Time:       slot,
		Reason:     req.Reason,
	}

	if err := s.claim(ctx, appt); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			recordBookingMetric(ctx, bookingConflict)
		}
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", appt.ID).
		Str("doctor_id", appt.DoctorID).
		Str("slot", appt.SlotKey().String()).
		Msg("appointment booked")

	s.publishBooked(ctx, appt)
	return appt, nil
}

// claim re-reads the booked times under the slot lock and persists appt if
// the slot is still free. The store's uniqueness guarantee backs the lock
// when several processes share one database.
func (s *BookingService) claim(ctx context.Context, appt *entities.Appointment) error {
	unlock, err := s.locker.Lock(ctx, appt.SlotKey().String())
	if err != nil {
		return storeError("failed to acquire slot lock", err)
	}
	defer unlock()

	booked, err := s.appointments.BookedTimes(ctx, appt.DoctorID, appt.Date)
	if err != nil {
		return storeError("failed to load booked times", err)
	}
	if availability.NewBookedSlotSet(booked...).Contains(appt.Time) {
		return slotTaken(appt)
	}

	appt.CreatedAt = s.now().UTC()
	if err := s.appointments.Create(ctx, appt); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			return slotTaken(appt)
		}
		return storeError("failed to create appointment", err)
	}
	return nil
}

func slotTaken(appt *entities.Appointment) error {
	return apperrors.NewConflictError(fmt.Sprintf("the %s slot on %s is already booked", appt.Time, appt.Date))
}

func (s *BookingService) publishBooked(ctx context.Context, appt *entities.Appointment) {
	if s.events == nil {
		return
	}
	event := entities.NewAppointmentBookedEvent(appt)
	if err := s.events.Publish(ctx, providers.EventChannelAppointments, event); err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", appt.ID).Msg("failed to publish appointment event")
	}
}

// GetAppointment retrieves an appointment by ID
func (s *BookingService) GetAppointment(ctx context.Context, id string) (*entities.Appointment, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFoundError("appointment not found")
	}
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, passOrStore("failed to load appointment", err)
	}
	return appt, nil
}

// ListAppointmentsByEmail returns a patient's appointments
func (s *BookingService) ListAppointmentsByEmail(ctx context.Context, email string) ([]*entities.Appointment, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.NewFieldValidationError("email is required", map[string]string{"email": "is required"})
	}
	appts, err := s.appointments.ListByEmail(ctx, email)
	if err != nil {
		return nil, storeError("failed to list appointments", err)
	}
	return appts, nil
}

func (s *BookingService) parseSlotQuery(doctorID, date string) (entities.CivilDate, error) {
	fields := map[string]string{}
	if doctorID == "" {
		fields["doctorId"] = "is required"
	}
	day, err := entities.ParseCivilDate(date)
	if err != nil {
		fields["date"] = "must be a valid YYYY-MM-DD date"
	}
	if len(fields) > 0 {
		return entities.CivilDate{}, apperrors.NewFieldValidationError("invalid slot query", fields)
	}
	return day, nil
}

func (s *BookingService) validateRequest(req BookingRequest) (entities.CivilDate, entities.TimeOfDay, error) {
	fields := map[string]string{}
	required := []struct {
		name, value string
	}{
		{"full_name", req.FullName},
		{"email", req.Email},
		{"phone", req.Phone},
		{"hospital_id", req.HospitalID},
		{"doctor_id", req.DoctorID},
		{"date", req.Date},
		{"time", req.Time},
		{"reason", req.Reason},
	}
	for _, f := range required {
		if f.value == "" {
			fields[f.name] = "is required"
		}
	}

	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			fields["email"] = "must be a valid email address"
		}
	}

	var day entities.CivilDate
	if req.Date != "" {
		parsed, err := entities.ParseCivilDate(req.Date)
		switch {
		case err != nil:
			fields["date"] = "must be a valid YYYY-MM-DD date"
		case parsed.Before(entities.Today(s.now(), s.location)):
			fields["date"] = "must not be in the past"
		default:
			day = parsed
		}
	}

	var slot entities.TimeOfDay
	if req.Time != "" {
		parsed, err := entities.ParseTimeOfDay(req.Time)
		if err != nil {
			fields["time"] = "must be a time such as 09:00 or 09:00 AM"
		} else {
			slot = parsed
		}
	}

	if len(fields) > 0 {
		return entities.CivilDate{}, 0, apperrors.NewFieldValidationError("invalid appointment request", fields)
	}
	return day, slot, nil
}

func (s *BookingService) loadDoctor(ctx context.Context, id string) (*entities.Doctor, error) {
	doctor, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, passOrStore("failed to load doctor", err)
	}
	return doctor, nil
}

func (s *BookingService) loadHospital(ctx context.Context, id string) (*entities.Hospital, error) {
	hospital, err := s.hospitals.GetByID(ctx, id)
	if err != nil {
		return nil, passOrStore("failed to load hospital", err)
	}
	return hospital, nil
}

// passOrStore keeps classified errors and wraps everything else as a store failure.
func passOrStore(msg string, err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.NewInternalError(msg, err)
}

func storeError(msg string, err error) error {
	return apperrors.NewInternalError(msg, err)
}

type bookingOutcome string

const (
	bookingSubmitted        bookingOutcome = "booking.submitted"
	bookingConflict         bookingOutcome = "booking.conflict"
	bookingValidationFailed bookingOutcome = "booking.validation_failed"
)

var (
	bookingCounters     map[bookingOutcome]metric.Int64Counter
	bookingCountersOnce sync.Once
)

func initBookingCounters() {
	meter := otel.Meter("github.com/zatekoja/streamlinecare/booking")
	counters := make(map[bookingOutcome]metric.Int64Counter, 3)
	for outcome, desc := range map[bookingOutcome]string{
		bookingSubmitted:        "Number of appointment submissions",
		bookingConflict:         "Number of submissions rejected because the slot was taken",
		bookingValidationFailed: "Number of submissions rejected by validation",
	} {
		counter, err := meter.Int64Counter(string(outcome), metric.WithDescription(desc))
		if err == nil {
			counters[outcome] = counter
		}
	}
	bookingCounters = counters
}

func recordBookingMetric(ctx context.Context, outcome bookingOutcome) {
	bookingCountersOnce.Do(initBookingCounters)
	if counter, ok := bookingCounters[outcome]; ok {
		counter.Add(ctx, 1, metric.WithAttributes(attribute.String("booking.outcome", string(outcome))))
	}
}
