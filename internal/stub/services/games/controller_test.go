package games

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/bsi-games/bsi/internal/dependencies/mocks"
	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/stub/storage/memory"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.controller = NewController(s.storage, s.clock)
	s.ctx = context.Background()

	for _, name := range []string{"alice", "bob", "carol"} {
		s.Require().NoError(s.storage.SaveRosterEntry(s.ctx, &model.RosterEntry{
			ID: name, Username: name, Visible: true,
		}))
	}
}

func (s *ControllerSuite) create(player, opponent string, color model.Color) *model.Game {
	g, err := s.controller.Create(s.ctx, player, model.GameParams{Opponent: opponent, UserColor: color})
	s.Require().NoError(err)
	return g
}

// Create tests

func (s *ControllerSuite) TestCreateAsBlackMovesFirst() {
	g := s.create("alice", "bob", model.ColorBlack)

	s.NotEmpty(g.ID)
	s.Equal([2]string{"alice", "bob"}, g.Players)
	s.Equal([2]model.Color{model.ColorBlack, model.ColorWhite}, g.Colors)
	s.Equal("alice", g.Next)
	s.Empty(g.Winner)
	s.Equal(model.ColorWhite, g.Board[3][3])
	s.Equal(model.ColorBlack, g.Board[3][4])
	s.Equal(model.ColorBlack, g.Board[4][3])
	s.Equal(model.ColorWhite, g.Board[4][4])
}

func (s *ControllerSuite) TestCreateAsWhiteOpponentMovesFirst() {
	g := s.create("alice", "bob", model.ColorWhite)
	s.Equal("bob", g.Next)
	s.Equal(model.ColorBlack, g.ColorOf("bob"))
}

func (s *ControllerSuite) TestCreateRejectsSelf() {
	_, err := s.controller.Create(s.ctx, "alice", model.GameParams{Opponent: "alice", UserColor: model.ColorBlack})
	s.ErrorIs(err, model.ErrInvalidOpponent)
}

func (s *ControllerSuite) TestCreateRejectsUnknownOpponent() {
	_, err := s.controller.Create(s.ctx, "alice", model.GameParams{Opponent: "zed", UserColor: model.ColorBlack})
	s.ErrorIs(err, model.ErrInvalidOpponent)
}

func (s *ControllerSuite) TestCreateRejectsBadColor() {
	_, err := s.controller.Create(s.ctx, "alice", model.GameParams{Opponent: "bob", UserColor: "E"})
	s.ErrorIs(err, model.ErrInvalidColor)
}

// Get and List tests

func (s *ControllerSuite) TestGetRequiresParticipation() {
	g := s.create("alice", "bob", model.ColorBlack)

	_, err := s.controller.Get(s.ctx, "carol", g.ID)
	s.ErrorIs(err, model.ErrNotInGame)

	got, err := s.controller.Get(s.ctx, "bob", g.ID)
	s.Require().NoError(err)
	s.Equal(g.ID, got.ID)
}

func (s *ControllerSuite) TestGetUnknownGame() {
	_, err := s.controller.Get(s.ctx, "alice", "missing")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestListFilters() {
	active := s.create("alice", "bob", model.ColorBlack)
	s.clock.Advance(time.Minute)
	done := s.create("alice", "carol", model.ColorBlack)
	done.Winner = "carol"
	s.Require().NoError(s.storage.SaveGame(s.ctx, done))

	all, err := s.controller.List(s.ctx, "alice", FilterAll)
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Equal(active.ID, all[0].ID)

	running, err := s.controller.List(s.ctx, "alice", FilterActive)
	s.Require().NoError(err)
	s.Require().Len(running, 1)
	s.Equal(active.ID, running[0].ID)

	finished, err := s.controller.List(s.ctx, "alice", FilterCompleted)
	s.Require().NoError(err)
	s.Require().Len(finished, 1)
	s.Equal(done.ID, finished[0].ID)

	bobs, err := s.controller.List(s.ctx, "bob", FilterAll)
	s.Require().NoError(err)
	s.Len(bobs, 1)
}

// Move tests

func (s *ControllerSuite) TestMovePlacesDiscAndPassesTurn() {
	g := s.create("alice", "bob", model.ColorBlack)
	s.clock.Advance(time.Second)

	updated, err := s.controller.Move(s.ctx, "alice", g.ID, model.Position{X: 2, Y: 3})
	s.Require().NoError(err)
	s.Equal(model.ColorBlack, updated.Board[3][2])
	s.Equal("bob", updated.Next)
	s.Require().Len(updated.Moves, 1)
	s.Equal("alice", updated.Moves[0].Player)
	s.Equal(s.clock.Now(), updated.UpdatedAt)

	stored, err := s.storage.GetGame(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(model.ColorBlack, stored.Board[3][2])
}

func (s *ControllerSuite) TestMoveOutOfTurn() {
	g := s.create("alice", "bob", model.ColorBlack)

	_, err := s.controller.Move(s.ctx, "bob", g.ID, model.Position{X: 2, Y: 3})
	s.ErrorIs(err, model.ErrNotPlayerTurn)
}

func (s *ControllerSuite) TestMoveOutOfBounds() {
	g := s.create("alice", "bob", model.ColorBlack)

	_, err := s.controller.Move(s.ctx, "alice", g.ID, model.Position{X: 8, Y: 0})
	s.ErrorIs(err, model.ErrInvalidPosition)
}

func (s *ControllerSuite) TestMoveOnOccupiedCell() {
	g := s.create("alice", "bob", model.ColorBlack)

	_, err := s.controller.Move(s.ctx, "alice", g.ID, model.Position{X: 3, Y: 3})
	s.ErrorIs(err, model.ErrCellOccupied)
}

func (s *ControllerSuite) TestMoveByOutsider() {
	g := s.create("alice", "bob", model.ColorBlack)

	_, err := s.controller.Move(s.ctx, "carol", g.ID, model.Position{X: 2, Y: 3})
	s.ErrorIs(err, model.ErrNotInGame)
}

func (s *ControllerSuite) TestFinalMoveDecidesWinner() {
	g := s.create("alice", "bob", model.ColorBlack)
	for y := range g.Board {
		for x := range g.Board[y] {
			g.Board[y][x] = model.ColorBlack
		}
	}
	g.Board[0][0] = model.ColorEmpty
	s.Require().NoError(s.storage.SaveGame(s.ctx, g))

	done, err := s.controller.Move(s.ctx, "alice", g.ID, model.Position{X: 0, Y: 0})
	s.Require().NoError(err)
	s.Equal("alice", done.Winner)
	s.Empty(done.Next)

	_, err = s.controller.Move(s.ctx, "bob", g.ID, model.Position{X: 1, Y: 1})
	s.ErrorIs(err, model.ErrGameComplete)
}

func (s *ControllerSuite) TestFinalMoveLevelIsTie() {
	g := s.create("alice", "bob", model.ColorBlack)
	for y := range g.Board {
		for x := range g.Board[y] {
			if y < model.BoardSize/2 {
				g.Board[y][x] = model.ColorBlack
			} else {
				g.Board[y][x] = model.ColorWhite
			}
		}
	}
	g.Board[0][0] = model.ColorEmpty
	s.Require().NoError(s.storage.SaveGame(s.ctx, g))

	done, err := s.controller.Move(s.ctx, "alice", g.ID, model.Position{X: 0, Y: 0})
	s.Require().NoError(err)
	s.Equal(model.WinnerTie, done.Winner)
}
