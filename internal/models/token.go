package models

import "time"

// TokenType discriminates access from refresh tokens inside the signed claims.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenPayload is the decoded, verified content of a signed token.
type TokenPayload struct {
	SubjectID string
	Email     string
	TokenType TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is what clients receive on login, register and refresh.
// AccessExpiresAt is epoch milliseconds so clients can schedule refreshes
// without timezone guesswork.
type TokenPair struct {
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	AccessExpiresAt int64  `json:"access_expires_at"`
}
