package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization level of a user.
type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)

// User is a registered casino player (or administrator).
// XP is a non-financial loyalty counter: it grows with every bet but
// never participates in balance reconciliation.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	XP           int64     `json:"xp"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin capability.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
