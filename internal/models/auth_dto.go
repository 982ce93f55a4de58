package models

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type AuthResponse struct {
	User   Identity  `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// BlacklistStats is the observability payload for the deny-list.
type BlacklistStats struct {
	TotalEntries       int `json:"total_entries"`
	ExpiredButNotSwept int `json:"expired_but_not_swept"`
}
