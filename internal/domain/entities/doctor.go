package entities

import "time"

// Doctor is a practitioner at a single hospital with a recurring weekly schedule
type Doctor struct {
	ID              string                    `json:"id" db:"id"`
	HospitalID      string                    `json:"hospital_id" db:"hospital_id"`
	Name            string                    `json:"name" db:"name"`
	Specialty       string                    `json:"specialty" db:"specialty"`
	Title           string                    `json:"title" db:"title"`
	Bio             string                    `json:"bio" db:"bio"`
	Education       string                    `json:"education" db:"education"`
	ExperienceYears int                       `json:"experience_years" db:"experience_years"`
	Availability    WeeklyAvailabilityPattern `json:"availability" db:"availability"`
	CreatedAt       time.Time                 `json:"created_at" db:"created_at"`
}

// HasPattern reports whether the doctor record carries an availability pattern.
func (d *Doctor) HasPattern() bool {
	return d.Availability != nil
}
