package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
)

// CatalogService defines the read-only hospital and doctor lookups
type CatalogService interface {
	ListHospitals(ctx context.Context) ([]*entities.Hospital, error)
	GetHospital(ctx context.Context, id string) (*entities.Hospital, error)
	ListDoctors(ctx context.Context, hospitalID string) ([]*entities.Doctor, error)
	GetDoctor(ctx context.Context, id string) (*entities.Doctor, error)
}

// CatalogHandler handles hospital and doctor requests
type CatalogHandler struct {
	service CatalogService
	format  entities.DisplayFormat
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service CatalogService, format entities.DisplayFormat) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		format:  format,
	}
}

// DoctorResponse is a doctor with availability rendered in the display format
type DoctorResponse struct {
	ID              string              `json:"id"`
	HospitalID      string              `json:"hospital_id"`
	Name            string              `json:"name"`
	Specialty       string              `json:"specialty"`
	Title           string              `json:"title"`
	Bio             string              `json:"bio"`
	Education       string              `json:"education"`
	ExperienceYears int                 `json:"experience_years"`
	Availability    map[string][]string `json:"availability"`
	CreatedAt       time.Time           `json:"created_at"`
}

func (h *CatalogHandler) doctorResponse(d *entities.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:              d.ID,
		HospitalID:      d.HospitalID,
		Name:            d.Name,
		Specialty:       d.Specialty,
		Title:           d.Title,
		Bio:             d.Bio,
		Education:       d.Education,
		ExperienceYears: d.ExperienceYears,
		Availability:    d.Availability.Labels(h.format),
		CreatedAt:       d.CreatedAt,
	}
}

// ListHospitals handles GET /api/hospitals
func (h *CatalogHandler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	hospitals, err := h.service.ListHospitals(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, hospitals)
}

// GetHospital handles GET /api/hospitals/{id}
func (h *CatalogHandler) GetHospital(w http.ResponseWriter, r *http.Request) {
	hospital, err := h.service.GetHospital(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, hospital)
}

// ListDoctors handles GET /api/doctors?hospitalId=ID
func (h *CatalogHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	hospitalID := strings.TrimSpace(r.URL.Query().Get("hospitalId"))

	doctors, err := h.service.ListDoctors(r.Context(), hospitalID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	response := make([]DoctorResponse, 0, len(doctors))
	for _, d := range doctors {
		response = append(response, h.doctorResponse(d))
	}
	respondWithJSON(w, http.StatusOK, response)
}

// GetDoctor handles GET /api/doctors/{id}
func (h *CatalogHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctor, err := h.service.GetDoctor(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.doctorResponse(doctor))
}
