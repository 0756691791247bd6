package models

import "time"

// AuthResponse is returned by every endpoint that logs a user in
type AuthResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
	Data   struct {
		User *User `json:"user"`
	} `json:"data"`
}

// IssuedToken is a signed access token with its validity window
type IssuedToken struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// PasswordReset is a freshly generated reset token. Plain is mailed to the user,
// only Hash is persisted.
type PasswordReset struct {
	Plain     string
	Hash      string
	ExpiresAt time.Time
}

// Email is a single outgoing plain text message
type Email struct {
	To      string
	Subject string
	Text    string
}
