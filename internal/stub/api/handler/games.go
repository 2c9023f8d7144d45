package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/stub/api/apierr"
	"github.com/bsi-games/bsi/internal/stub/api/middleware"
	"github.com/bsi-games/bsi/internal/stub/api/response"
	"github.com/bsi-games/bsi/internal/stub/services/games"
)

// GameHandler handles othello game endpoints
type GameHandler struct {
	controller *games.Controller
	notifier   Notifier
	logger     *slog.Logger
}

// NewGameHandler creates a new game handler. notifier may be nil.
func NewGameHandler(controller *games.Controller, notifier Notifier, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		controller: controller,
		notifier:   notifier,
		logger:     logger,
	}
}

// List handles GET /api/games/othello/
// "winner=" selects games without a winner, "winner[$gte]=..." finished ones.
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	filter, err := parseFilter(r.URL.RawQuery)
	if err != nil {
		WriteError(w, NewInvalidRequestError("invalid query"))
		return
	}

	list, err := h.controller.List(r.Context(), player, filter)
	if err != nil {
		apierr.WriteGameError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Games(list))
}

// Get handles GET /api/games/othello/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := model.GameID(mux.Vars(r)["id"])

	g, err := h.controller.Get(r.Context(), player, id)
	if err != nil {
		apierr.WriteGameError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, g)
}

// Create handles POST /api/games/othello/
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var params model.GameParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	g, err := h.controller.Create(r.Context(), player, params)
	if err != nil {
		apierr.WriteGameError(w, err)
		return
	}

	h.logger.Info("game created",
		slog.String("game_id", string(g.ID)),
		slog.String("player", player),
		slog.String("opponent", params.Opponent))
	if h.notifier != nil {
		h.notifier.NotifyGameCreated(g, player)
	}

	response.JSON(w, http.StatusCreated, response.Created{ID: g.ID})
}

// Move handles POST /api/games/othello/{id}/move/
func (h *GameHandler) Move(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := model.GameID(mux.Vars(r)["id"])

	var pos model.Position
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	g, err := h.controller.Move(r.Context(), player, id, pos)
	if err != nil {
		apierr.WriteGameError(w, err)
		return
	}

	if h.notifier != nil {
		h.notifier.NotifyGameUpdated(g)
	}
	response.JSON(w, http.StatusOK, g)
}

func parseFilter(rawQuery string) (games.Filter, error) {
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return games.FilterAll, err
	}
	if q.Has("winner[$gte]") {
		return games.FilterCompleted, nil
	}
	if q.Has("winner") && q.Get("winner") == "" {
		return games.FilterActive, nil
	}
	return games.FilterAll, nil
}
