// Package memory provides process-local stores used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	"github.com/zatekoja/streamlinecare/internal/domain/repositories"
	apperrors "github.com/zatekoja/streamlinecare/pkg/errors"
)

// Catalog holds hospitals and doctors in memory
type Catalog struct {
	mu        sync.RWMutex
	hospitals map[string]*entities.Hospital
	doctors   map[string]*entities.Doctor
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		hospitals: make(map[string]*entities.Hospital),
		doctors:   make(map[string]*entities.Doctor),
	}
}

// UpsertHospital implements repositories.CatalogWriter
func (c *Catalog) UpsertHospital(_ context.Context, hospital *entities.Hospital) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := *hospital
	c.hospitals[h.ID] = &h
	return nil
}

// UpsertDoctor implements repositories.CatalogWriter
func (c *Catalog) UpsertDoctor(_ context.Context, doctor *entities.Doctor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := *doctor
	c.doctors[d.ID] = &d
	return nil
}

// Hospitals returns the hospital view of the catalog
func (c *Catalog) Hospitals() repositories.HospitalRepository {
	return hospitalView{c}
}

// Doctors returns the doctor view of the catalog
func (c *Catalog) Doctors() repositories.DoctorRepository {
	return doctorView{c}
}

type hospitalView struct{ c *Catalog }

func (v hospitalView) GetByID(_ context.Context, id string) (*entities.Hospital, error) {
	v.c.mu.RLock()
	defer v.c.mu.RUnlock()
	h, ok := v.c.hospitals[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("hospital not found")
	}
	out := *h
	return &out, nil
}

func (v hospitalView) List(_ context.Context) ([]*entities.Hospital, error) {
	v.c.mu.RLock()
	defer v.c.mu.RUnlock()
	out := make([]*entities.Hospital, 0, len(v.c.hospitals))
	for _, h := range v.c.hospitals {
		cp := *h
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (v hospitalView) GetByIDs(_ context.Context, ids []string) ([]*entities.Hospital, error) {
	v.c.mu.RLock()
	defer v.c.mu.RUnlock()
	out := make([]*entities.Hospital, 0, len(ids))
	for _, id := range ids {
		if h, ok := v.c.hospitals[id]; ok {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

type doctorView struct{ c *Catalog }

func (v doctorView) GetByID(_ context.Context, id string) (*entities.Doctor, error) {
	v.c.mu.RLock()
	defer v.c.mu.RUnlock()
	d, ok := v.c.doctors[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("doctor not found")
	}
	out := *d
	return &out, nil
}

func (v doctorView) ListByHospital(_ context.Context, hospitalID string) ([]*entities.Doctor, error) {
	v.c.mu.RLock()
	defer v.c.mu.RUnlock()
	out := make([]*entities.Doctor, 0)
	for _, d := range v.c.doctors {
		if d.HospitalID == hospitalID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (v doctorView) GetByIDs(_ context.Context, ids []string) ([]*entities.Doctor, error) {
	v.c.mu.RLock()
	defer v.c.mu.RUnlock()
	out := make([]*entities.Doctor, 0, len(ids))
	for _, id := range ids {
		if d, ok := v.c.doctors[id]; ok {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}
