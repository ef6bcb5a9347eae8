package services

import (
	"context"
	"strings"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	"github.com/zatekoja/streamlinecare/internal/domain/repositories"
)

// CatalogService exposes the read-only hospital and doctor catalog
type CatalogService struct {
	hospitals repositories.HospitalRepository
	doctors   repositories.DoctorRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(hospitals repositories.HospitalRepository, doctors repositories.DoctorRepository) *CatalogService {
	return &CatalogService{
		hospitals: hospitals,
		doctors:   doctors,
	}
}

// ListHospitals returns every hospital
func (s *CatalogService) ListHospitals(ctx context.Context) ([]*entities.Hospital, error) {
	hospitals, err := s.hospitals.List(ctx)
	if err != nil {
		return nil, passOrStore("failed to list hospitals", err)
	}
	return hospitals, nil
}

// GetHospital returns a hospital by ID
func (s *CatalogService) GetHospital(ctx context.Context, id string) (*entities.Hospital, error) {
	hospital, err := s.hospitals.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, passOrStore("failed to load hospital", err)
	}
	return hospital, nil
}

// ListDoctors returns the doctors at a hospital. An empty hospital ID yields
// an empty list rather than every doctor.
func (s *CatalogService) ListDoctors(ctx context.Context, hospitalID string) ([]*entities.Doctor, error) {
	hospitalID = strings.TrimSpace(hospitalID)
	if hospitalID == "" {
		return []*entities.Doctor{}, nil
	}
	if _, err := s.GetHospital(ctx, hospitalID); err != nil {
		return nil, err
	}

	doctors, err := s.doctors.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, passOrStore("failed to list doctors", err)
	}
	return doctors, nil
}

// GetDoctor returns a doctor by ID
func (s *CatalogService) GetDoctor(ctx context.Context, id string) (*entities.Doctor, error) {
	doctor, err := s.doctors.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, passOrStore("failed to load doctor", err)
	}
	return doctor, nil
}
