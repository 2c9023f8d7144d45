package model

import "time"

// RosterEntry is a player as the game service's roster lists them
type RosterEntry struct {
	ID       string    `json:"_id"`
	Username string    `json:"username"`
	JoinDate time.Time `json:"joindate"`
	Visible  bool      `json:"visible"`
	Presence bool      `json:"presence"`
}

// RegisteredPlayer holds the authorization server's account data
// Stored separately from the roster; the password never leaves the server
type RegisteredPlayer struct {
	Username     string
	EAddress     string
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
}

// Token is an access token issued by the authorization server
type Token struct {
	Kind      string
	Secret    string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Active reports whether the token is still valid at the given time
func (t *Token) Active(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}
