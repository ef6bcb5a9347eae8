package repositories

import (
	"context"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
)

// HospitalRepository defines read access to the hospital catalog
type HospitalRepository interface {
	// GetByID retrieves a hospital by ID
	GetByID(ctx context.Context, id string) (*entities.Hospital, error)

	// List retrieves all hospitals ordered by name
	List(ctx context.Context) ([]*entities.Hospital, error)

	// GetByIDs retrieves hospitals in bulk, skipping unknown IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Hospital, error)
}

// DoctorRepository defines read access to doctors and their availability patterns
type DoctorRepository interface {
	// GetByID retrieves a doctor by ID
	GetByID(ctx context.Context, id string) (*entities.Doctor, error)

	// ListByHospital retrieves the doctors practising at a hospital ordered by name
	ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Doctor, error)

	// GetByIDs retrieves doctors in bulk, skipping unknown IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error)
}

// CatalogWriter loads reference data into a store. Used by seeding only.
type CatalogWriter interface {
	UpsertHospital(ctx context.Context, hospital *entities.Hospital) error
	UpsertDoctor(ctx context.Context, doctor *entities.Doctor) error
}
