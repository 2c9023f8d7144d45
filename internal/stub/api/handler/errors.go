package handler

import (
	"net/http"

	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/stub/api/apierr"
)

// Notifier pushes change notifications to connected players
type Notifier interface {
	BroadcastPresence(username string, online bool)
	NotifyGameCreated(g *model.Game, creator string)
	NotifyGameUpdated(g *model.Game)
}

// WriteError writes an error response
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}
