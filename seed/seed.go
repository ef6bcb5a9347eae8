// Package seed holds the reference hospital and doctor catalog.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	"github.com/zatekoja/streamlinecare/internal/domain/repositories"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is the parsed reference data
type Catalog struct {
	Hospitals []*entities.Hospital
	Doctors   []*entities.Doctor
}

type catalogFile struct {
	Hospitals []hospitalRecord `yaml:"hospitals"`
	Doctors   []doctorRecord   `yaml:"doctors"`
}

type hospitalRecord struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Address     string `yaml:"address"`
	Location    string `yaml:"location"`
	Description string `yaml:"description"`
	PhoneNumber string `yaml:"phone_number"`
	Email       string `yaml:"email"`
}

type doctorRecord struct {
	ID              string              `yaml:"id"`
	HospitalID      string              `yaml:"hospital_id"`
	Name            string              `yaml:"name"`
	Specialty       string              `yaml:"specialty"`
	Title           string              `yaml:"title"`
	Bio             string              `yaml:"bio"`
	Education       string              `yaml:"education"`
	ExperienceYears int                 `yaml:"experience_years"`
	Availability    map[string][]string `yaml:"availability"`
}

// Load parses the embedded catalog
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse decodes a catalog document and converts availability labels to
// canonical values.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	catalog := &Catalog{}
	hospitalIDs := make(map[string]struct{}, len(file.Hospitals))
	for _, h := range file.Hospitals {
		if h.ID == "" {
			return nil, fmt.Errorf("hospital %q has no id", h.Name)
		}
		if _, dup := hospitalIDs[h.ID]; dup {
			return nil, fmt.Errorf("duplicate hospital id %s", h.ID)
		}
		hospitalIDs[h.ID] = struct{}{}
		catalog.Hospitals = append(catalog.Hospitals, &entities.Hospital{
			ID:          h.ID,
			Name:        h.Name,
			Address:     h.Address,
			Location:    h.Location,
			Description: h.Description,
			PhoneNumber: h.PhoneNumber,
			Email:       h.Email,
		})
	}

	doctorIDs := make(map[string]struct{}, len(file.Doctors))
	for _, d := range file.Doctors {
		if d.ID == "" {
			return nil, fmt.Errorf("doctor %q has no id", d.Name)
		}
		if _, dup := doctorIDs[d.ID]; dup {
			return nil, fmt.Errorf("duplicate doctor id %s", d.ID)
		}
		doctorIDs[d.ID] = struct{}{}
		if _, ok := hospitalIDs[d.HospitalID]; !ok {
			return nil, fmt.Errorf("doctor %s references unknown hospital %s", d.ID, d.HospitalID)
		}

		pattern, err := entities.ParseWeeklyPattern(d.Availability)
		if err != nil {
			return nil, fmt.Errorf("doctor %s: %w", d.ID, err)
		}

		catalog.Doctors = append(catalog.Doctors, &entities.Doctor{
			ID:              d.ID,
			HospitalID:      d.HospitalID,
			Name:            d.Name,
			Specialty:       d.Specialty,
			Title:           d.Title,
			Bio:             d.Bio,
			Education:       d.Education,
			ExperienceYears: d.ExperienceYears,
			Availability:    pattern,
		})
	}

	return catalog, nil
}

// Apply writes the catalog through w, hospitals first.
func Apply(ctx context.Context, w repositories.CatalogWriter, catalog *Catalog) error {
	for _, h := range catalog.Hospitals {
		if err := w.UpsertHospital(ctx, h); err != nil {
			return fmt.Errorf("failed to seed hospital %s: %w", h.ID, err)
		}
	}
	for _, d := range catalog.Doctors {
		if err := w.UpsertDoctor(ctx, d); err != nil {
			return fmt.Errorf("failed to seed doctor %s: %w", d.ID, err)
		}
	}
	return nil
}
