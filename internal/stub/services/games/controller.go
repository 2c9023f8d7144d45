package games

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bsi-games/bsi/internal/dependencies/clock"
	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/stub/storage"
)

// Filter selects games by completion
type Filter int

const (
	FilterAll Filter = iota
	FilterActive
	FilterCompleted
)

// Controller manages game documents and move placement.
// Placement only checks turn, bounds and occupancy; no discs are flipped.
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
}

// NewController creates a new games Controller
func NewController(storage storage.Storage, clock clock.Clock) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
	}
}

// List returns the player's games matching the filter, oldest first
func (c *Controller) List(ctx context.Context, player string, filter Filter) ([]*model.Game, error) {
	games, err := c.storage.ListGamesForPlayer(ctx, player)
	if err != nil {
		return nil, err
	}

	result := make([]*model.Game, 0, len(games))
	for _, g := range games {
		switch filter {
		case FilterActive:
			if g.IsComplete() {
				continue
			}
		case FilterCompleted:
			if !g.IsComplete() {
				continue
			}
		}
		result = append(result, g)
	}
	return result, nil
}

// Get returns a game the player takes part in
func (c *Controller) Get(ctx context.Context, player string, id model.GameID) (*model.Game, error) {
	g, err := c.storage.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if !g.HasPlayer(player) {
		return nil, model.ErrNotInGame
	}
	return g, nil
}

// Create starts a game between the player and a rostered opponent.
// Black moves first.
func (c *Controller) Create(ctx context.Context, player string, params model.GameParams) (*model.Game, error) {
	if params.Opponent == "" || params.Opponent == player {
		return nil, model.ErrInvalidOpponent
	}
	if _, err := c.storage.GetRosterEntry(ctx, params.Opponent); err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, model.ErrInvalidOpponent
		}
		return nil, err
	}

	var opponentColor model.Color
	switch params.UserColor {
	case model.ColorBlack:
		opponentColor = model.ColorWhite
	case model.ColorWhite:
		opponentColor = model.ColorBlack
	default:
		return nil, model.ErrInvalidColor
	}

	now := c.clock.Now()
	g := &model.Game{
		ID:        model.GameID(uuid.NewString()),
		Players:   [2]string{player, params.Opponent},
		Colors:    [2]model.Color{params.UserColor, opponentColor},
		Board:     model.NewBoard(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if params.UserColor == model.ColorBlack {
		g.Next = player
	} else {
		g.Next = params.Opponent
	}

	if err := c.storage.SaveGame(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Move places the player's disc and hands the turn to the opponent.
// A full board completes the game, decided by disc count.
func (c *Controller) Move(ctx context.Context, player string, id model.GameID, pos model.Position) (*model.Game, error) {
	g, err := c.Get(ctx, player, id)
	if err != nil {
		return nil, err
	}
	if g.IsComplete() {
		return nil, model.ErrGameComplete
	}
	if g.Next != player {
		return nil, model.ErrNotPlayerTurn
	}
	if !pos.InBounds() {
		return nil, model.ErrInvalidPosition
	}
	if g.Board[pos.Y][pos.X] != model.ColorEmpty {
		return nil, model.ErrCellOccupied
	}

	now := c.clock.Now()
	g.Board[pos.Y][pos.X] = g.ColorOf(player)
	g.Moves = append(g.Moves, model.Move{Player: player, Position: pos, At: now})
	g.Next = g.Opponent(player)
	g.UpdatedAt = now

	if winner, done := decide(g); done {
		g.Winner = winner
		g.Next = ""
	}

	if err := c.storage.SaveGame(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// decide reports the winner once no empty cell remains
func decide(g *model.Game) (string, bool) {
	counts := map[model.Color]int{}
	for _, row := range g.Board {
		for _, cell := range row {
			if cell == model.ColorEmpty {
				return "", false
			}
			counts[cell]++
		}
	}

	first, second := counts[g.Colors[0]], counts[g.Colors[1]]
	switch {
	case first > second:
		return g.Players[0], true
	case second > first:
		return g.Players[1], true
	default:
		return model.WinnerTie, true
	}
}
