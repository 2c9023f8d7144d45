package response

import (
	"github.com/bsi-games/bsi/internal/model"
)

// Message is the authorization server's plain acknowledgement
type Message struct {
	Message string `json:"message"`
}

// Token is an OAuth style token grant
type Token struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Introspection describes a token; inactive tokens carry only Active
type Introspection struct {
	Active    bool   `json:"active"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	ExpiresIn int64  `json:"expires_in,omitempty"`
}

// IntrospectionResponse wraps an Introspection
type IntrospectionResponse struct {
	Response Introspection `json:"response"`
}

// Created is returned when a game is created
type Created struct {
	ID model.GameID `json:"id"`
}

// Presence echoes a presence update
type Presence struct {
	Presence bool `json:"presence"`
}

// Games converts a list of game pointers for encoding; nil becomes empty
func Games(games []*model.Game) []model.Game {
	out := make([]model.Game, 0, len(games))
	for _, g := range games {
		out = append(out, *g)
	}
	return out
}

// Roster converts a list of roster entries for encoding; nil becomes empty
func Roster(entries []*model.RosterEntry) []model.RosterEntry {
	out := make([]model.RosterEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e)
	}
	return out
}
