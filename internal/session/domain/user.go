package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	Email        string // trimmed and lower-cased
	Name         string
	PasswordHash string // argon2 encoded
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the claim set captured into credentials for this user.
func (u User) Identity() Identity {
	return Identity{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}

// Identity is what a credential says about its holder. It is a snapshot: a
// role change in the directory only shows up once a new access token is minted.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// IsZero reports whether no identity is present.
func (i Identity) IsZero() bool { return i.ID == "" }

// NormalizeEmail is applied before every lookup and every insert.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewAccount carries a registration request once it passed validation.
type NewAccount struct {
	Name     string
	Email    string
	Password string
	Role     Role
}
