package models

import "time"

// User is an identity row. PasswordHash is empty for accounts provisioned
// through an OAuth provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated principal attached to a request context.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
