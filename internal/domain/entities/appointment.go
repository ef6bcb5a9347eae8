package entities

import (
	"time"
)

// Appointment is a patient's claim on one (doctor, date, time) slot.
// At most one appointment may exist per slot.
type Appointment struct {
	ID         string    `json:"id" db:"id"`
	FullName   string    `json:"full_name" db:"full_name"`
	Email      string    `json:"email" db:"email"`
	Phone      string    `json:"phone" db:"phone"`
	HospitalID string    `json:"hospital_id" db:"hospital_id"`
	DoctorID   string    `json:"doctor_id" db:"doctor_id"`
	Date       CivilDate `json:"date" db:"appointment_date"`
	Time       TimeOfDay `json:"time" db:"appointment_time"`
	Reason     string    `json:"reason" db:"reason"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// SlotKey identifies the slot an appointment occupies.
func (a *Appointment) SlotKey() SlotKey {
	return SlotKey{DoctorID: a.DoctorID, Date: a.Date, Time: a.Time}
}

// SlotKey is the uniqueness key for appointments.
type SlotKey struct {
	DoctorID string
	Date     CivilDate
	Time     TimeOfDay
}

func (k SlotKey) String() string {
	return k.DoctorID + "|" + k.Date.String() + "|" + k.Time.String()
}

// AppointmentDetails is an appointment with the hospital and doctor names
// resolved, as shown on confirmation and dashboard views.
type AppointmentDetails struct {
	*Appointment
	HospitalName string `json:"hospital_name"`
	DoctorName   string `json:"doctor_name"`
}
