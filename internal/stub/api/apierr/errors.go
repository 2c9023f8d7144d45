package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/stub/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// MoveErrorResponse is the game service's move rejection body
type MoveErrorResponse struct {
	MoveError string `json:"othelloMoveError"`
}

// DatabaseErrorResponse is the game service's storage failure body
type DatabaseErrorResponse struct {
	DatabaseError string `json:"othelloDatabaseError"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeGameNotFound       = "GAME_NOT_FOUND"
	CodeNotInGame          = "NOT_IN_GAME"
	CodeInvalidOpponent    = "INVALID_OPPONENT"
	CodeInvalidColor       = "INVALID_COLOR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with a response body
type httpError struct {
	status int
	body   any
}

// Error implements error interface
func (e *httpError) Error() string {
	switch b := e.body.(type) {
	case ErrorResponse:
		return b.Error.Message
	case MoveErrorResponse:
		return b.MoveError
	case DatabaseErrorResponse:
		return b.DatabaseError
	}
	return http.StatusText(e.status)
}

func apiError(status int, code, message string) *httpError {
	return &httpError{status, ErrorResponse{Error: APIError{Code: code, Message: message}}}
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	write(w, toHTTPError(err))
}

// WriteGameError writes a game service error. Rejected moves and storage
// failures use the game service's own bodies.
func WriteGameError(w http.ResponseWriter, err error) {
	switch {
	case isMoveError(err):
		write(w, &httpError{http.StatusBadRequest, MoveErrorResponse{MoveError: err.Error()}})
	default:
		he := toHTTPError(err)
		if he.status == http.StatusInternalServerError {
			he = &httpError{http.StatusInternalServerError, DatabaseErrorResponse{DatabaseError: err.Error()}}
		}
		write(w, he)
	}
}

func write(w http.ResponseWriter, he *httpError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(he.body)
}

func isMoveError(err error) bool {
	return errors.Is(err, model.ErrNotPlayerTurn) ||
		errors.Is(err, model.ErrInvalidPosition) ||
		errors.Is(err, model.ErrCellOccupied) ||
		errors.Is(err, model.ErrGameComplete)
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Map model errors
	case errors.Is(err, model.ErrPlayerNotFound):
		return apiError(http.StatusNotFound, CodePlayerNotFound, "Player not found")
	case errors.Is(err, model.ErrGameNotFound):
		return apiError(http.StatusNotFound, CodeGameNotFound, "Game not found")
	case errors.Is(err, model.ErrNotInGame):
		return apiError(http.StatusForbidden, CodeNotInGame, "Not a player in this game")
	case errors.Is(err, model.ErrInvalidOpponent):
		return apiError(http.StatusBadRequest, CodeInvalidOpponent, "Opponent must be another rostered player")
	case errors.Is(err, model.ErrInvalidColor):
		return apiError(http.StatusBadRequest, CodeInvalidColor, "Color must be B or W")

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidToken):
		return apiError(http.StatusUnauthorized, CodeUnauthorized, "Invalid or expired token")
	case errors.Is(err, auth.ErrMissingField):
		return apiError(http.StatusBadRequest, CodeInvalidRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		// The authorization server reports bad credentials as a server error
		return apiError(http.StatusInternalServerError, CodeInvalidCredentials, "Invalid username or password")

	default:
		return apiError(http.StatusInternalServerError, CodeInternalError, "Internal server error")
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apiError(http.StatusBadRequest, CodeInvalidRequest, message)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return apiError(http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return apiError(http.StatusInternalServerError, CodeInternalError, "Internal server error")
}
