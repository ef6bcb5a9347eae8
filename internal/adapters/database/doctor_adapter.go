package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	"github.com/zatekoja/streamlinecare/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/streamlinecare/pkg/errors"
)

var doctorColumns = []interface{}{
	"id", "hospital_id", "name", "specialty", "title", "bio", "education",
	"experience_years", "availability", "created_at",
}

// DoctorAdapter implements the DoctorRepository interface
type DoctorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDoctorAdapter creates a new doctor adapter
func NewDoctorAdapter(client *postgres.Client) *DoctorAdapter {
	return &DoctorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// scanDoctor reads a doctor row. A stored pattern that cannot be decoded is
// reported as a configuration error: the record exists but cannot be scheduled.
func scanDoctor(row rowScanner) (*entities.Doctor, error) {
	d := &entities.Doctor{}
	var availability []byte
	if err := row.Scan(
		&d.ID,
		&d.HospitalID,
		&d.Name,
		&d.Specialty,
		&d.Title,
		&d.Bio,
		&d.Education,
		&d.ExperienceYears,
		&availability,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}

	if availability != nil {
		if err := d.Availability.Scan(availability); err != nil {
			log.Error().Err(err).Str("doctor_id", d.ID).Msg("stored availability pattern is malformed")
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("doctor %s has a malformed availability pattern", d.ID))
		}
	}
	return d, nil
}

// GetByID retrieves a doctor by ID
func (a *DoctorAdapter) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	query, args, err := a.db.Select(doctorColumns...).
		From("doctors").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	doctor, err := scanDoctor(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %s not found", id))
	}
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.NewInternalError("failed to get doctor", err)
	}
	return doctor, nil
}

// ListByHospital retrieves the doctors of a hospital ordered by name
func (a *DoctorAdapter) ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Doctor, error) {
	query, args, err := a.db.Select(doctorColumns...).
		From("doctors").
		Where(goqu.Ex{"hospital_id": hospitalID}).
		Order(goqu.C("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.query(ctx, query, args)
}

// GetByIDs retrieves doctors in bulk
func (a *DoctorAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error) {
	if len(ids) == 0 {
		return []*entities.Doctor{}, nil
	}
	query, args, err := a.db.Select(doctorColumns...).
		From("doctors").
		Where(goqu.C("id").In(ids)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.query(ctx, query, args)
}

func (a *DoctorAdapter) query(ctx context.Context, query string, args []interface{}) ([]*entities.Doctor, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list doctors", err)
	}
	defer rows.Close()

	doctors := make([]*entities.Doctor, 0)
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			if _, ok := apperrors.As(err); ok {
				return nil, err
			}
			return nil, apperrors.NewInternalError("failed to scan doctor", err)
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate doctors", err)
	}
	return doctors, nil
}

// UpsertDoctor inserts or refreshes a catalog doctor
func (a *DoctorAdapter) UpsertDoctor(ctx context.Context, d *entities.Doctor) error {
	var availability interface{}
	if d.HasPattern() {
		raw, err := d.Availability.MarshalJSON()
		if err != nil {
			return apperrors.NewInternalError("failed to encode availability", err)
		}
		availability = string(raw)
	}

	record := goqu.Record{
		"id":               d.ID,
		"hospital_id":      d.HospitalID,
		"name":             d.Name,
		"specialty":        d.Specialty,
		"title":            d.Title,
		"bio":              d.Bio,
		"education":        d.Education,
		"experience_years": d.ExperienceYears,
		"availability":     availability,
	}

	query, args, err := a.db.Insert("doctors").
		Rows(record).
		OnConflict(goqu.DoUpdate("id", goqu.Record{
			"hospital_id":      goqu.L("EXCLUDED.hospital_id"),
			"name":             goqu.L("EXCLUDED.name"),
			"specialty":        goqu.L("EXCLUDED.specialty"),
			"title":            goqu.L("EXCLUDED.title"),
			"bio":              goqu.L("EXCLUDED.bio"),
			"education":        goqu.L("EXCLUDED.education"),
			"experience_years": goqu.L("EXCLUDED.experience_years"),
			"availability":     goqu.L("EXCLUDED.availability"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert doctor", err)
	}
	return nil
}

// CatalogWriter upserts reference data into PostgreSQL
type CatalogWriter struct {
	*HospitalAdapter
	*DoctorAdapter
}

// NewCatalogWriter creates a writer for seeding the catalog tables
func NewCatalogWriter(client *postgres.Client) *CatalogWriter {
	return &CatalogWriter{
		HospitalAdapter: NewHospitalAdapter(client),
		DoctorAdapter:   NewDoctorAdapter(client),
	}
}
