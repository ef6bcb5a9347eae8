package entities

import "time"

// Hospital is a facility patients can book at
type Hospital struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Address     string    `json:"address" db:"address"`
	Location    string    `json:"location" db:"location"`
	Description string    `json:"description" db:"description"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	Email       string    `json:"email" db:"email"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
