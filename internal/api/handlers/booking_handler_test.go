package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/streamlinecare/internal/api/handlers"
	"github.com/zatekoja/streamlinecare/internal/api/loaders"
	"github.com/zatekoja/streamlinecare/internal/application/services"
	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	apperrors "github.com/zatekoja/streamlinecare/pkg/errors"
)

func slots(labels ...string) []entities.TimeOfDay {
	out := make([]entities.TimeOfDay, len(labels))
	for i, l := range labels {
		out[i] = entities.MustTimeOfDay(l)
	}
	return out
}

func TestBookingHandler_GetAvailableSlots(t *testing.T) {
	t.Run("returns open slots for the date", func(t *testing.T) {
		mockService := new(MockBookingService)
		handler := handlers.NewBookingHandler(mockService, entities.DisplayFormat12h)

		mockService.On("GetAvailableSlots", mock.Anything, "101", "2025-06-02").Return(slots("09:00", "14:00"), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/availableSlots?doctorId=101&date=2025-06-02", nil)
		w := httptest.NewRecorder()
		handler.GetAvailableSlots(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body handlers.AvailableSlotsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, handlers.AvailableSlotsResponse{
			DoctorID: "101",
			Date:     "2025-06-02",
			Weekday:  "Monday",
			Slots:    []string{"09:00 AM", "02:00 PM"},
		}, body)
	})

	t.Run("no slots is an empty list, not an error", func(t *testing.T) {
		mockService := new(MockBookingService)
		handler := handlers.NewBookingHandler(mockService, entities.DisplayFormat24h)

		mockService.On("GetAvailableSlots", mock.Anything, "101", "2025-06-07").Return([]entities.TimeOfDay{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/availableSlots?doctorId=101&date=2025-06-07", nil)
		w := httptest.NewRecorder()
		handler.GetAvailableSlots(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"slots":[]`)
	})

	t.Run("maps error kinds to status codes", func(t *testing.T) {
		tests := []struct {
			name   string
			err    error
			status int
			kind   string
		}{
			{"validation", apperrors.NewFieldValidationError("invalid query", map[string]string{"date": "must be YYYY-MM-DD"}), http.StatusBadRequest, "validation"},
			{"not found", apperrors.NewNotFoundError("doctor 9 not found"), http.StatusNotFound, "not_found"},
			{"configuration", apperrors.NewConfigurationError("doctor 401 has no availability pattern"), http.StatusInternalServerError, "configuration"},
			{"store", apperrors.NewInternalError("failed to load booked times", errors.New("connection reset")), http.StatusServiceUnavailable, "store"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mockService := new(MockBookingService)
				handler := handlers.NewBookingHandler(mockService, entities.DisplayFormat24h)
				mockService.On("GetAvailableSlots", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

				req := httptest.NewRequest(http.MethodGet, "/api/availableSlots?doctorId=9&date=x", nil)
				w := httptest.NewRecorder()
				handler.GetAvailableSlots(w, req)

				assert.Equal(t, tt.status, w.Code)
				var body handlers.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.kind, body.Kind)
				assert.NotContains(t, body.Error, "connection reset")
			})
		}
	})
}

func TestBookingHandler_GetBookedTimes(t *testing.T) {
	mockService := new(MockBookingService)
	handler := handlers.NewBookingHandler(mockService, entities.DisplayFormat24h)

	mockService.On("GetBookedTimes", mock.Anything, "101", "2025-06-02").Return(slots("10:00"), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/booked-times?doctorId=101&date=2025-06-02", nil)
	w := httptest.NewRecorder()
	handler.GetBookedTimes(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["10:00"]`, w.Body.String())
}

func TestBookingHandler_SubmitAppointment(t *testing.T) {
	payload := map[string]string{
		"full_name":   "Kofi Boateng",
		"email":       "kofi@example.com",
		"phone":       "0241234567",
		"hospital_id": "1",
		"doctor_id":   "101",
		"date":        "2025-06-02",
		"time":        "9:00 AM",
		"reason":      "Follow-up",
	}

	t.Run("successfully submits appointment", func(t *testing.T) {
		mockService := new(MockBookingService)
		handler := handlers.NewBookingHandler(mockService, entities.DisplayFormat24h)

		mockService.On("SubmitAppointment", mock.Anything, mock.MatchedBy(func(r services.BookingRequest) bool {
			return r.DoctorID == "101" && r.Time == "9:00 AM" && r.FullName == "Kofi Boateng"
		})).Return(&entities.Appointment{ID: "6f1d2c3b-4a5e-4f60-8a7b-9c0d1e2f3a4b"}, nil)

		body, _ := json.Marshal(payload)
		req := httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewBuffer(body))
		w := httptest.NewRecorder()
		handler.SubmitAppointment(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"success":true,"appointmentId":"6f1d2c3b-4a5e-4f60-8a7b-9c0d1e2f3a4b"}`, w.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("returns bad request for invalid payload", func(t *testing.T) {
		mockService := new(MockBookingService)
		handler := handlers.NewBookingHandler(mockService, entities.DisplayFormat24h)

		req := httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewBufferString("invalid-json"))
		w := httptest.NewRecorder()
		handler.SubmitAppointment(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "SubmitAppointment", mock.Anything, mock.Anything)
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		mockService := new(MockBookingService)
		handler := handlers.NewBookingHandler(mockService, entities.DisplayFormat24h)

		huge := `{"reason":"` + strings.Repeat("a", 70<<10) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(huge))
		w := httptest.NewRecorder()
		handler.SubmitAppointment(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("conflict when the slot was taken", func(t *testing.T) {
		mockService := new(MockBookingService)
		handler := handlers.NewBookingHandler(mockService, entities.DisplayFormat24h)

		mockService.On("SubmitAppointment", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewConflictError("slot 101|2025-06-02|09:00 is already booked"))

		body, _ := json.Marshal(payload)
		req := httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewBuffer(body))
		w := httptest.NewRecorder()
		handler.SubmitAppointment(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		var resp handlers.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "conflict", resp.Kind)
	})

	t.Run("validation errors carry field detail", func(t *testing.T) {
		mockService := new(MockBookingService)
		handler := handlers.NewBookingHandler(mockService, entities.DisplayFormat24h)

		mockService.On("SubmitAppointment", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewFieldValidationError("invalid appointment request", map[string]string{
				"email": "is not a valid email address",
				"phone": "is required",
			}))

		req := httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewBufferString(`{}`))
		w := httptest.NewRecorder()
		handler.SubmitAppointment(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp handlers.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, map[string]string{"email": "is not a valid email address", "phone": "is required"}, resp.Fields)
	})
}

type nameHospitals struct{}

func (nameHospitals) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	return nil, errors.New("not used")
}

func (nameHospitals) List(ctx context.Context) ([]*entities.Hospital, error) {
	return nil, errors.New("not used")
}

func (nameHospitals) GetByIDs(ctx context.Context, ids []string) ([]*entities.Hospital, error) {
	out := make([]*entities.Hospital, len(ids))
	for i, id := range ids {
		out[i] = &entities.Hospital{ID: id, Name: "Korle Bu Teaching Hospital"}
	}
	return out, nil
}

type nameDoctors struct{}

func (nameDoctors) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	return nil, errors.New("not used")
}

func (nameDoctors) ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Doctor, error) {
	return nil, errors.New("not used")
}

func (nameDoctors) GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error) {
	out := make([]*entities.Doctor, len(ids))
	for i, id := range ids {
		out[i] = &entities.Doctor{ID: id, Name: "Ama Mensah"}
	}
	return out, nil
}

func TestBookingHandler_ListAppointments(t *testing.T) {
	mockService := new(MockBookingService)
	handler := handlers.NewBookingHandler(mockService, entities.DisplayFormat24h)

	appt := &entities.Appointment{
		ID:         "6f1d2c3b-4a5e-4f60-8a7b-9c0d1e2f3a4b",
		FullName:   "Kofi Boateng",
		Email:      "kofi@example.com",
		HospitalID: "1",
		DoctorID:   "101",
		Date:       entities.CivilDate{Year: 2025, Month: 6, Day: 2},
		Time:       entities.MustTimeOfDay("09:00"),
	}
	mockService.On("ListAppointmentsByEmail", mock.Anything, "kofi@example.com").Return([]*entities.Appointment{appt}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/appointments?email=kofi@example.com", nil)
	w := httptest.NewRecorder()
	loaders.Middleware(nameHospitals{}, nameDoctors{})(http.HandlerFunc(handler.ListAppointments)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Korle Bu Teaching Hospital", body[0]["hospital_name"])
	assert.Equal(t, "Ama Mensah", body[0]["doctor_name"])
	assert.Equal(t, "2025-06-02", body[0]["date"])
	assert.Equal(t, "09:00", body[0]["time"])
}

func TestBookingHandler_GetAppointmentWithoutLoaders(t *testing.T) {
	mockService := new(MockBookingService)
	handler := handlers.NewBookingHandler(mockService, entities.DisplayFormat24h)

	mockService.On("GetAppointment", mock.Anything, "not-a-uuid").Return(nil, apperrors.NewNotFoundError("appointment not found"))

	req := httptest.NewRequest(http.MethodGet, "/api/appointments/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	w := httptest.NewRecorder()
	handler.GetAppointment(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
