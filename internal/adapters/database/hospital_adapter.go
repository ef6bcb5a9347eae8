package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	"github.com/zatekoja/streamlinecare/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/streamlinecare/pkg/errors"
)

var hospitalColumns = []interface{}{
	"id", "name", "address", "location", "description", "phone_number", "email", "created_at",
}

// HospitalAdapter implements the HospitalRepository interface
type HospitalAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewHospitalAdapter creates a new hospital adapter
func NewHospitalAdapter(client *postgres.Client) *HospitalAdapter {
	return &HospitalAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHospital(row rowScanner) (*entities.Hospital, error) {
	h := &entities.Hospital{}
	err := row.Scan(
		&h.ID,
		&h.Name,
		&h.Address,
		&h.Location,
		&h.Description,
		&h.PhoneNumber,
		&h.Email,
		&h.CreatedAt,
	)
	return h, err
}

// GetByID retrieves a hospital by ID
func (a *HospitalAdapter) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	query, args, err := a.db.Select(hospitalColumns...).
		From("hospitals").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	hospital, err := scanHospital(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("hospital with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get hospital", err)
	}
	return hospital, nil
}

// List retrieves all hospitals ordered by name
func (a *HospitalAdapter) List(ctx context.Context) ([]*entities.Hospital, error) {
	query, args, err := a.db.Select(hospitalColumns...).
		From("hospitals").
		Order(goqu.C("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.query(ctx, query, args)
}

// GetByIDs retrieves hospitals in bulk
func (a *HospitalAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Hospital, error) {
	if len(ids) == 0 {
		return []*entities.Hospital{}, nil
	}
	query, args, err := a.db.Select(hospitalColumns...).
		From("hospitals").
		Where(goqu.C("id").In(ids)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.query(ctx, query, args)
}

func (a *HospitalAdapter) query(ctx context.Context, query string, args []interface{}) ([]*entities.Hospital, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list hospitals", err)
	}
	defer rows.Close()

	hospitals := make([]*entities.Hospital, 0)
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan hospital", err)
		}
		hospitals = append(hospitals, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate hospitals", err)
	}
	return hospitals, nil
}

// UpsertHospital inserts or refreshes a catalog hospital
func (a *HospitalAdapter) UpsertHospital(ctx context.Context, h *entities.Hospital) error {
	record := goqu.Record{
		"id":           h.ID,
		"name":         h.Name,
		"address":      h.Address,
		"location":     h.Location,
		"description":  h.Description,
		"phone_number": h.PhoneNumber,
		"email":        h.Email,
	}

	query, args, err := a.db.Insert("hospitals").
		Rows(record).
		OnConflict(goqu.DoUpdate("id", goqu.Record{
			"name":         goqu.L("EXCLUDED.name"),
			"address":      goqu.L("EXCLUDED.address"),
			"location":     goqu.L("EXCLUDED.location"),
			"description":  goqu.L("EXCLUDED.description"),
			"phone_number": goqu.L("EXCLUDED.phone_number"),
			"email":        goqu.L("EXCLUDED.email"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert hospital", err)
	}
	return nil
}
