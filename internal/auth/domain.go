package auth

import "time"

// Account is a platform login account. Its ID doubles as the access-control
// registry user id, so a session user resolves directly to permissions.
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
