package model

import (
	"time"
)

const (
	RoleMentor = "mentor"
	RoleAdmin  = "admin"
)

// User is a staff account (mentor or admin) operating the tracker, not a
// tracked student.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
