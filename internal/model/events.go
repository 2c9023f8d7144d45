package model

// EventType identifies a push channel message
type EventType string

const (
	// Inbound (server to client)
	EventAuthorization EventType = "authorization"
	EventPlayerOnline  EventType = "playerOnline"
	EventPlayerOffline EventType = "playerOffline"
	EventGameCreated   EventType = "gameCreated"
	EventGameUpdated   EventType = "gameUpdated"
	EventGameActive    EventType = "gameActive"
	EventGameInactive  EventType = "gameInactive"
)

// Event is a typed inbound push message
type Event interface {
	Type() EventType
}

// AuthorizationResult acknowledges an authorization message
type AuthorizationResult struct {
	Authorized bool `json:"authorized"`
}

// PlayerOnline announces a player became reachable
type PlayerOnline struct {
	Player string `json:"player"`
}

// PlayerOffline announces a player is no longer reachable
type PlayerOffline struct {
	Player string `json:"player"`
}

// GameCreated announces a game was created by the named player
type GameCreated struct {
	Player string `json:"player"`
}

// GameUpdated signals that some game state changed
type GameUpdated struct{}

// GameActive announces an opponent has a live view of a game open
type GameActive struct {
	Player string `json:"player"`
	GameID GameID `json:"gameId"`
}

// GameInactive announces an opponent closed their game view
type GameInactive struct {
	Player string `json:"player"`
}

func (AuthorizationResult) Type() EventType { return EventAuthorization }
func (PlayerOnline) Type() EventType        { return EventPlayerOnline }
func (PlayerOffline) Type() EventType       { return EventPlayerOffline }
func (GameCreated) Type() EventType         { return EventGameCreated }
func (GameUpdated) Type() EventType         { return EventGameUpdated }
func (GameActive) Type() EventType          { return EventGameActive }
func (GameInactive) Type() EventType        { return EventGameInactive }

// OutboundMessage is a client to server push message
type OutboundMessage struct {
	Type   EventType `json:"type"`
	Token  string    `json:"token,omitempty"`
	GameID GameID    `json:"gameId,omitempty"`
	Player string    `json:"player,omitempty"`
}

// AuthorizationMessage builds the message that authorizes a push connection
func AuthorizationMessage(c Credential) OutboundMessage {
	return OutboundMessage{Type: EventAuthorization, Token: c.Header()}
}
