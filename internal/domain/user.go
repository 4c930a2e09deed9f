package domain

import "time"

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// User represents a registered account, either a patient or a doctor.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
