package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bsi-games/bsi/internal/model"
)

const (
	gamesPath    = "/api/games/othello/"
	rosterPath   = "/api/roster"
	presencePath = "/api/roster/presence"

	// The game service filters with bracket-encoded operators
	activeGamesQuery    = "winner="
	completedGamesQuery = "winner[$gte]=%20"
	visibleRosterQuery  = "visible=true"
)

// CreatedGame is the game service's reply to a create request
type CreatedGame struct {
	ID model.GameID `json:"id"`
}

type presenceBody struct {
	Presence bool `json:"presence"`
}

// ListActiveGames returns the games of the signed-in player that have no winner yet
func (g *Gateway) ListActiveGames(ctx context.Context) ([]model.Game, error) {
	var games []model.Game
	if err := g.do(ctx, "listActiveGames", http.MethodGet, gamesPath, activeGamesQuery, nil, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// ListCompletedGames returns the signed-in player's finished games
func (g *Gateway) ListCompletedGames(ctx context.Context) ([]model.Game, error) {
	var games []model.Game
	if err := g.do(ctx, "listCompletedGames", http.MethodGet, gamesPath, completedGamesQuery, nil, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// ListRoster returns all visible players, online or not
func (g *Gateway) ListRoster(ctx context.Context) ([]model.RosterEntry, error) {
	var roster []model.RosterEntry
	if err := g.do(ctx, "listRoster", http.MethodGet, rosterPath, visibleRosterQuery, nil, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}

// FetchGame returns a single game document
func (g *Gateway) FetchGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	var game model.Game
	if err := g.do(ctx, "fetchGame", http.MethodGet, gamesPath+url.PathEscape(string(id)), "", nil, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// CreateGame starts a game against the given opponent
func (g *Gateway) CreateGame(ctx context.Context, params model.GameParams) (*CreatedGame, error) {
	var created CreatedGame
	if err := g.do(ctx, "createGame", http.MethodPost, gamesPath, "", params, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// SubmitMove places a disc and returns the updated game
func (g *Gateway) SubmitMove(ctx context.Context, id model.GameID, pos model.Position) (*model.Game, error) {
	var game model.Game
	path := gamesPath + url.PathEscape(string(id)) + "/move/"
	if err := g.do(ctx, "submitMove", http.MethodPost, path, "", pos, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// UpsertRoster adds the signed-in player to the roster if absent
func (g *Gateway) UpsertRoster(ctx context.Context) error {
	return g.do(ctx, "upsertRoster", http.MethodPost, rosterPath, "", nil, nil)
}

// SetPresence marks the signed-in player online or offline
func (g *Gateway) SetPresence(ctx context.Context, present bool) error {
	return g.do(ctx, "setPresence", http.MethodPost, presencePath, "", presenceBody{Presence: present}, nil)
}
