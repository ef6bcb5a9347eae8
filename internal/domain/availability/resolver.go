// Package availability derives the open slots of a doctor on a given date.
// It is pure: no I/O, no clock, no shared state.
package availability

import (
	"fmt"

	"github.com/zatekoja/streamlinecare/internal/domain/entities"
	apperrors "github.com/zatekoja/streamlinecare/pkg/errors"
)

// BookedSlotSet is the set of times already claimed for one (doctor, date).
// It is always derived from the store at request time.
type BookedSlotSet map[entities.TimeOfDay]struct{}

// NewBookedSlotSet builds a set from times.
func NewBookedSlotSet(times ...entities.TimeOfDay) BookedSlotSet {
	set := make(BookedSlotSet, len(times))
	for _, t := range times {
		set[t] = struct{}{}
	}
	return set
}

// Contains reports whether t is booked.
func (s BookedSlotSet) Contains(t entities.TimeOfDay) bool {
	_, ok := s[t]
	return ok
}

// Resolve returns the pattern's times for the weekday of date, in pattern
// order, minus booked times. A day with no entry yields an empty, non-nil
// slice. A nil pattern is a configuration error.
func Resolve(pattern entities.WeeklyAvailabilityPattern, date entities.CivilDate, booked BookedSlotSet) ([]entities.TimeOfDay, error) {
	if pattern == nil {
		return nil, apperrors.NewConfigurationError("doctor has no availability pattern")
	}

	day := date.Weekday()
	if !day.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid date %s", date))
	}

	candidates := pattern[day]
	slots := make([]entities.TimeOfDay, 0, len(candidates))
	seen := make(map[entities.TimeOfDay]struct{}, len(candidates))
	for _, t := range candidates {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if booked.Contains(t) {
			continue
		}
		slots = append(slots, t)
	}
	return slots, nil
}

// Offers reports whether the pattern lists t on the weekday of date.
func Offers(pattern entities.WeeklyAvailabilityPattern, date entities.CivilDate, t entities.TimeOfDay) bool {
	for _, candidate := range pattern[date.Weekday()] {
		if candidate == t {
			return true
		}
	}
	return false
}
