package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/stub/services/games"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
}

func (s *IntegrationSuite) signUp(username string) string {
	s.Require().NoError(s.app.AuthService.Register(s.ctx, username, username+"@example.com", "pw"))
	tok, err := s.app.AuthService.Issue(s.ctx, username, "pw")
	s.Require().NoError(err)
	_, err = s.app.RosterService.Upsert(s.ctx, username)
	s.Require().NoError(err)
	return tok.Kind + " " + tok.Secret
}

// Test: accounts, roster and a game share one storage
func (s *IntegrationSuite) TestGameFlow() {
	aliceHeader := s.signUp("alice")
	s.signUp("bob")

	username, err := s.app.AuthService.ValidateBearer(s.ctx, aliceHeader)
	s.Require().NoError(err)
	s.Equal("alice", username)

	g, err := s.app.GameController.Create(s.ctx, "alice", model.GameParams{Opponent: "bob", UserColor: model.ColorWhite})
	s.Require().NoError(err)
	s.Equal("bob", g.Next)

	s.app.MockClock.Advance(time.Minute)
	g, err = s.app.GameController.Move(s.ctx, "bob", g.ID, model.Position{X: 2, Y: 3})
	s.Require().NoError(err)
	s.Equal("alice", g.Next)

	active, err := s.app.GameController.List(s.ctx, "alice", games.FilterActive)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(g.ID, active[0].ID)

	roster, err := s.app.RosterService.List(s.ctx, true)
	s.Require().NoError(err)
	s.Len(roster, 2)
}

func (s *IntegrationSuite) TestTokensExpireWithClock() {
	header := s.signUp("alice")

	s.app.MockClock.Advance(2 * time.Hour)

	_, err := s.app.AuthService.ValidateBearer(s.ctx, header)
	s.Error(err)
}

func (s *IntegrationSuite) TestNewRejectsUnknownStorage() {
	_, err := New(Config{StorageType: "sqlite"})
	s.Error(err)
}

func (s *IntegrationSuite) TestNewRedisRequiresConfig() {
	_, err := New(Config{StorageType: StorageTypeRedis})
	s.Error(err)
}
