package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/zatekoja/streamlinecare/internal/api/loaders"
	"github.com/zatekoja/streamlinecare/internal/application/services"
	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	apperrors "github.com/zatekoja/streamlinecare/pkg/errors"
)

// maxBookingBody caps the size of an appointment submission
const maxBookingBody = 64 << 10

// BookingService defines the slot lookup and submission operations
type BookingService interface {
	GetAvailableSlots(ctx context.Context, doctorID, date string) ([]entities.TimeOfDay, error)
	GetBookedTimes(ctx context.Context, doctorID, date string) ([]entities.TimeOfDay, error)
	SubmitAppointment(ctx context.Context, req services.BookingRequest) (*entities.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*entities.Appointment, error)
	ListAppointmentsByEmail(ctx context.Context, email string) ([]*entities.Appointment, error)
}

// BookingHandler handles availability and appointment requests
type BookingHandler struct {
	service BookingService
	format  entities.DisplayFormat
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service BookingService, format entities.DisplayFormat) *BookingHandler {
	return &BookingHandler{
		service: service,
		format:  format,
	}
}

// AvailableSlotsResponse lists the open slots of one doctor on one date
type AvailableSlotsResponse struct {
	DoctorID string   `json:"doctorId"`
	Date     string   `json:"date"`
	Weekday  string   `json:"weekday"`
	Slots    []string `json:"slots"`
}

// SubmitResponse acknowledges a stored appointment
type SubmitResponse struct {
	Success       bool   `json:"success"`
	AppointmentID string `json:"appointmentId"`
}

func (h *BookingHandler) labels(times []entities.TimeOfDay) []string {
	out := make([]string, len(times))
	for i, t := range times {
		out[i] = t.Format(h.format)
	}
	return out
}

// GetAvailableSlots handles GET /api/availableSlots?doctorId=&date=
func (h *BookingHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := strings.TrimSpace(r.URL.Query().Get("doctorId"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	slots, err := h.service.GetAvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	// date already validated by the service
	civil, _ := entities.ParseCivilDate(date)
	respondWithJSON(w, http.StatusOK, AvailableSlotsResponse{
		DoctorID: doctorID,
		Date:     civil.String(),
		Weekday:  civil.Weekday().String(),
		Slots:    h.labels(slots),
	})
}

// GetBookedTimes handles GET /api/booked-times?doctorId=&date=
func (h *BookingHandler) GetBookedTimes(w http.ResponseWriter, r *http.Request) {
	doctorID := strings.TrimSpace(r.URL.Query().Get("doctorId"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	times, err := h.service.GetBookedTimes(r.Context(), doctorID, date)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.labels(times))
}

// SubmitAppointment handles POST /api/appointments
func (h *BookingHandler) SubmitAppointment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBookingBody)

	var req services.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, apperrors.KindValidation, "request body too large", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, apperrors.KindValidation, "invalid request payload", nil)
		return
	}

	appt, err := h.service.SubmitAppointment(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, SubmitResponse{
		Success:       true,
		AppointmentID: appt.ID,
	})
}

// GetAppointment handles GET /api/appointments/{id}
func (h *BookingHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := h.service.GetAppointment(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.details(r.Context(), []*entities.Appointment{appt})[0])
}

// ListAppointments handles GET /api/appointments?email=
func (h *BookingHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := h.service.ListAppointmentsByEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.details(r.Context(), appts))
}

// details attaches hospital and doctor names when request loaders are present
func (h *BookingHandler) details(ctx context.Context, appts []*entities.Appointment) []*entities.AppointmentDetails {
	if l := loaders.For(ctx); l != nil {
		return l.Details(ctx, appts)
	}
	out := make([]*entities.AppointmentDetails, len(appts))
	for i, appt := range appts {
		out[i] = &entities.AppointmentDetails{Appointment: appt}
	}
	return out
}
