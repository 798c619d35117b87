package models

import (
	"time"

	"github.com/google/uuid"
)

// Owner is a unit owner's portal account. Board members and management
// staff are owners (or staff records) whose role comes from the account,
// not from the unit.
type Owner struct {
	ID           uuid.UUID `json:"id"`
	UnitID       uuid.UUID `json:"unit_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
