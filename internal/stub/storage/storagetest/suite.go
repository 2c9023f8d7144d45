// Package storagetest holds behavior every storage backend must share.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/stub/storage"
)

// Suite runs the common storage checks against the backend returned by New
type Suite struct {
	suite.Suite
	New     func() storage.Storage
	storage storage.Storage
	ctx     context.Context
}

func (s *Suite) SetupTest() {
	s.storage = s.New()
	s.ctx = context.Background()
}

func (s *Suite) TestRegisteredPlayer() {
	rp := &model.RegisteredPlayer{
		Username:     "alice",
		EAddress:     "alice@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.storage.SaveRegisteredPlayer(s.ctx, rp))

	got, err := s.storage.GetRegisteredPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("hash", got.PasswordHash)
	s.Equal("alice@example.com", got.EAddress)

	taken, err := s.storage.EAddressRegistered(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.True(taken)

	taken, err = s.storage.EAddressRegistered(s.ctx, "bob@example.com")
	s.Require().NoError(err)
	s.False(taken)
}

func (s *Suite) TestRegisteredPlayerNotFound() {
	_, err := s.storage.GetRegisteredPlayer(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestTokenLifecycle() {
	tok := &model.Token{
		Kind:      "bearer",
		Secret:    "secret-1",
		Username:  "alice",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	s.Require().NoError(s.storage.SaveToken(s.ctx, tok))

	got, err := s.storage.GetToken(s.ctx, "secret-1")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)

	s.Require().NoError(s.storage.DeleteToken(s.ctx, "secret-1"))
	_, err = s.storage.GetToken(s.ctx, "secret-1")
	s.ErrorIs(err, model.ErrTokenNotFound)
}

func (s *Suite) TestRoster() {
	_, err := s.storage.GetRosterEntry(s.ctx, "alice")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	s.Require().NoError(s.storage.SaveRosterEntry(s.ctx, &model.RosterEntry{ID: "r2", Username: "bob", Visible: true}))
	s.Require().NoError(s.storage.SaveRosterEntry(s.ctx, &model.RosterEntry{ID: "r1", Username: "alice", Visible: true}))

	entry, err := s.storage.GetRosterEntry(s.ctx, "alice")
	s.Require().NoError(err)
	s.False(entry.Presence)

	entry.Presence = true
	s.Require().NoError(s.storage.SaveRosterEntry(s.ctx, entry))

	roster, err := s.storage.ListRoster(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(roster, 2)
	s.Equal("alice", roster[0].Username)
	s.True(roster[0].Presence)
	s.Equal("bob", roster[1].Username)
}

func (s *Suite) TestEmptyRoster() {
	roster, err := s.storage.ListRoster(s.ctx)
	s.Require().NoError(err)
	s.Empty(roster)
}

func (s *Suite) TestGames() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g1 := &model.Game{
		ID:        "g1",
		Players:   [2]string{"alice", "bob"},
		Colors:    [2]model.Color{model.ColorBlack, model.ColorWhite},
		Board:     model.NewBoard(),
		Next:      "alice",
		CreatedAt: base,
	}
	g2 := &model.Game{
		ID:        "g2",
		Players:   [2]string{"carol", "alice"},
		Colors:    [2]model.Color{model.ColorWhite, model.ColorBlack},
		Board:     model.NewBoard(),
		Next:      "alice",
		CreatedAt: base.Add(time.Minute),
	}
	s.Require().NoError(s.storage.SaveGame(s.ctx, g2))
	s.Require().NoError(s.storage.SaveGame(s.ctx, g1))

	got, err := s.storage.GetGame(s.ctx, "g1")
	s.Require().NoError(err)
	s.Equal(g1.Players, got.Players)
	s.Equal(model.ColorWhite, got.Board[3][3])

	games, err := s.storage.ListGamesForPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(games, 2)
	s.Equal(model.GameID("g1"), games[0].ID)
	s.Equal(model.GameID("g2"), games[1].ID)

	games, err = s.storage.ListGamesForPlayer(s.ctx, "bob")
	s.Require().NoError(err)
	s.Len(games, 1)

	games, err = s.storage.ListGamesForPlayer(s.ctx, "dave")
	s.Require().NoError(err)
	s.Empty(games)
}

func (s *Suite) TestGameUpdateReplaces() {
	g := &model.Game{ID: "g1", Players: [2]string{"alice", "bob"}, Board: model.NewBoard(), Next: "alice"}
	s.Require().NoError(s.storage.SaveGame(s.ctx, g))

	g.Board[0][0] = model.ColorBlack
	g.Next = "bob"
	s.Require().NoError(s.storage.SaveGame(s.ctx, g))

	got, err := s.storage.GetGame(s.ctx, "g1")
	s.Require().NoError(err)
	s.Equal("bob", got.Next)
	s.Equal(model.ColorBlack, got.Board[0][0])

	games, err := s.storage.ListGamesForPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(games, 1)
}

func (s *Suite) TestGameNotFound() {
	_, err := s.storage.GetGame(s.ctx, "missing")
	s.ErrorIs(err, model.ErrGameNotFound)
}
