package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	apperrors "github.com/zatekoja/streamlinecare/pkg/errors"
)

// AppointmentStore keeps appointments in memory and enforces one appointment
// per (doctor, date, time), mirroring the unique index of the SQL schema.
type AppointmentStore struct {
	mu     sync.RWMutex
	byID   map[string]*entities.Appointment
	bySlot map[entities.SlotKey]string // slot -> appointment ID
}

// NewAppointmentStore creates an empty store
func NewAppointmentStore() *AppointmentStore {
	return &AppointmentStore{
		byID:   make(map[string]*entities.Appointment),
		bySlot: make(map[entities.SlotKey]string),
	}
}

// Create persists appt or returns a conflict error if its slot is taken
func (s *AppointmentStore) Create(_ context.Context, appt *entities.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := appt.SlotKey()
	if _, taken := s.bySlot[key]; taken {
		return apperrors.NewConflictError("slot already booked")
	}
	if _, exists := s.byID[appt.ID]; exists {
		return apperrors.NewConflictError("appointment already exists")
	}

	cp := *appt
	s.byID[cp.ID] = &cp
	s.bySlot[key] = cp.ID
	return nil
}

// GetByID retrieves an appointment by ID
func (s *AppointmentStore) GetByID(_ context.Context, id string) (*entities.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appt, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("appointment not found")
	}
	cp := *appt
	return &cp, nil
}

// ListByEmail retrieves a patient's appointments, latest date first
func (s *AppointmentStore) ListByEmail(_ context.Context, email string) ([]*entities.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entities.Appointment, 0)
	for _, appt := range s.byID {
		if strings.EqualFold(appt.Email, email) {
			cp := *appt
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[j].Date.Before(out[i].Date)
		}
		return out[i].Time > out[j].Time
	})
	return out, nil
}

// BookedTimes returns the times claimed for doctorID on date
func (s *AppointmentStore) BookedTimes(_ context.Context, doctorID string, date entities.CivilDate) ([]entities.TimeOfDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.TimeOfDay, 0)
	for key := range s.bySlot {
		if key.DoctorID == doctorID && key.Date == date {
			out = append(out, key.Time)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
