package domain

import (
	"strings"
	"time"
)

// User is an account that owns recipes, tags and ingredients.
// The user ID is the tenancy boundary: every other table is filtered by it.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (u *User) Touch() {
	u.UpdatedAt = time.Now()
}

// NormalizeEmail lower-cases and trims an email address so that lookups
// are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
