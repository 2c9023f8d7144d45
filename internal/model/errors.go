package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrUsernameExists = errors.New("username already exists")

	// Token errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenNotFound      = errors.New("token not found")

	// Game errors
	ErrGameNotFound    = errors.New("game not found")
	ErrNotInGame       = errors.New("player is not in this game")
	ErrNotPlayerTurn   = errors.New("not this player's turn")
	ErrInvalidPosition = errors.New("invalid board position")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrGameComplete    = errors.New("game is already complete")
	ErrInvalidOpponent = errors.New("invalid opponent")
	ErrInvalidColor    = errors.New("color must be B or W")
)
