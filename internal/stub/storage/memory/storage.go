package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/stub/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	registeredPlayers map[string]*model.RegisteredPlayer
	eaddressIndex     map[string]string
	tokens            map[string]*model.Token
	roster            map[string]*model.RosterEntry
	games             map[model.GameID]*model.Game
	gamesForPlayer    map[string]map[model.GameID]struct{}
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		registeredPlayers: make(map[string]*model.RegisteredPlayer),
		eaddressIndex:     make(map[string]string),
		tokens:            make(map[string]*model.Token),
		roster:            make(map[string]*model.RosterEntry),
		games:             make(map[model.GameID]*model.Game),
		gamesForPlayer:    make(map[string]map[model.GameID]struct{}),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rp
	s.registeredPlayers[rp.Username] = &cp
	s.eaddressIndex[rp.EAddress] = rp.Username
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.registeredPlayers[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	cp := *rp
	return &cp, nil
}

func (s *Storage) EAddressRegistered(ctx context.Context, eaddress string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.eaddressIndex[eaddress]
	return ok, nil
}

// Token operations

func (s *Storage) SaveToken(ctx context.Context, tok *model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *tok
	s.tokens[tok.Secret] = &cp
	return nil
}

func (s *Storage) GetToken(ctx context.Context, secret string) (*model.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[secret]
	if !ok {
		return nil, model.ErrTokenNotFound
	}
	cp := *tok
	return &cp, nil
}

func (s *Storage) DeleteToken(ctx context.Context, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, secret)
	return nil
}

// Roster operations

func (s *Storage) SaveRosterEntry(ctx context.Context, entry *model.RosterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.roster[entry.Username] = &cp
	return nil
}

func (s *Storage) GetRosterEntry(ctx context.Context, username string) (*model.RosterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.roster[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	cp := *entry
	return &cp, nil
}

func (s *Storage) ListRoster(ctx context.Context) ([]*model.RosterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*model.RosterEntry, 0, len(s.roster))
	for _, e := range s.roster {
		cp := *e
		entries = append(entries, &cp)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Username < entries[j].Username })
	return entries, nil
}

// Game operations

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = cloneGame(game)
	for _, p := range game.Players {
		if s.gamesForPlayer[p] == nil {
			s.gamesForPlayer[p] = make(map[model.GameID]struct{})
		}
		s.gamesForPlayer[p][game.ID] = struct{}{}
	}
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return cloneGame(game), nil
}

func (s *Storage) ListGamesForPlayer(ctx context.Context, username string) ([]*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := make([]*model.Game, 0, len(s.gamesForPlayer[username]))
	for id := range s.gamesForPlayer[username] {
		if g, ok := s.games[id]; ok {
			games = append(games, cloneGame(g))
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].CreatedAt.Before(games[j].CreatedAt) })
	return games, nil
}

// cloneGame deep copies the board and move list
func cloneGame(g *model.Game) *model.Game {
	cp := *g
	cp.Board = make([][]model.Color, len(g.Board))
	for i, row := range g.Board {
		cp.Board[i] = append([]model.Color(nil), row...)
	}
	cp.Moves = append([]model.Move(nil), g.Moves...)
	return &cp
}
