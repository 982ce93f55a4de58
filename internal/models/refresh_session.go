package models

import "time"

// RefreshSession is an active refresh-token record held by the session
// registry. A record exists iff the corresponding refresh token is still
// honorable for rotation; absence means already rotated, logged out or
// never issued here.
type RefreshSession struct {
	RefreshToken string    `json:"refresh_token"`
	SubjectID    string    `json:"subject_id"`
	Email        string    `json:"email"`
	Family       string    `json:"family"`
	IssuedAt     time.Time `json:"issued_at"`
}
