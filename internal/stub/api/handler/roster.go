package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bsi-games/bsi/internal/stub/api/apierr"
	"github.com/bsi-games/bsi/internal/stub/api/middleware"
	"github.com/bsi-games/bsi/internal/stub/api/request"
	"github.com/bsi-games/bsi/internal/stub/api/response"
	"github.com/bsi-games/bsi/internal/stub/services/roster"
)

// RosterHandler handles roster and presence endpoints
type RosterHandler struct {
	service  *roster.Service
	notifier Notifier
	logger   *slog.Logger
}

// NewRosterHandler creates a new roster handler. notifier may be nil.
func NewRosterHandler(service *roster.Service, notifier Notifier, logger *slog.Logger) *RosterHandler {
	return &RosterHandler{
		service:  service,
		notifier: notifier,
		logger:   logger,
	}
}

// List handles GET /api/roster
func (h *RosterHandler) List(w http.ResponseWriter, r *http.Request) {
	visibleOnly := r.URL.Query().Get("visible") == "true"

	entries, err := h.service.List(r.Context(), visibleOnly)
	if err != nil {
		apierr.WriteGameError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Roster(entries))
}

// Upsert handles POST /api/roster
func (h *RosterHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	entry, err := h.service.Upsert(r.Context(), player)
	if err != nil {
		apierr.WriteGameError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, entry)
}

// Presence handles POST /api/roster/presence
func (h *RosterHandler) Presence(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.PresenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Presence == nil {
		WriteError(w, NewInvalidRequestError("presence is required"))
		return
	}

	changed, err := h.service.SetPresence(r.Context(), player, *req.Presence)
	if err != nil {
		apierr.WriteGameError(w, err)
		return
	}

	if changed {
		h.logger.Info("presence changed", slog.String("player", player), slog.Bool("presence", *req.Presence))
		if h.notifier != nil {
			h.notifier.BroadcastPresence(player, *req.Presence)
		}
	}
	response.JSON(w, http.StatusOK, response.Presence{Presence: *req.Presence})
}
