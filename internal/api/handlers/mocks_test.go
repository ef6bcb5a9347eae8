package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/streamlinecare/internal/application/services"
	"github.com/zatekoja/streamlinecare/internal/domain/entities"
)

// MockCatalogService defines the mock catalog service
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListHospitals(ctx context.Context) ([]*entities.Hospital, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Hospital), args.Error(1)
}

func (m *MockCatalogService) GetHospital(ctx context.Context, id string) (*entities.Hospital, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Hospital), args.Error(1)
}

func (m *MockCatalogService) ListDoctors(ctx context.Context, hospitalID string) ([]*entities.Doctor, error) {
	args := m.Called(ctx, hospitalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Doctor), args.Error(1)
}

func (m *MockCatalogService) GetDoctor(ctx context.Context, id string) (*entities.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Doctor), args.Error(1)
}

// MockBookingService defines the mock booking service
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) GetAvailableSlots(ctx context.Context, doctorID, date string) ([]entities.TimeOfDay, error) {
	args := m.Called(ctx, doctorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.TimeOfDay), args.Error(1)
}

func (m *MockBookingService) GetBookedTimes(ctx context.Context, doctorID, date string) ([]entities.TimeOfDay, error) {
	args := m.Called(ctx, doctorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.TimeOfDay), args.Error(1)
}

func (m *MockBookingService) SubmitAppointment(ctx context.Context, req services.BookingRequest) (*entities.Appointment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Appointment), args.Error(1)
}

func (m *MockBookingService) GetAppointment(ctx context.Context, id string) (*entities.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Appointment), args.Error(1)
}

func (m *MockBookingService) ListAppointmentsByEmail(ctx context.Context, email string) ([]*entities.Appointment, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Appointment), args.Error(1)
}
