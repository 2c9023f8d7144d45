package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/stub/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, registeredPlayerKey(rp.Username), data, 0)
	pipe.Set(ctx, eaddressIndexKey(rp.EAddress), rp.Username, 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	var rp model.RegisteredPlayer
	if err := s.getJSON(ctx, registeredPlayerKey(username), &rp, model.ErrPlayerNotFound); err != nil {
		return nil, err
	}
	return &rp, nil
}

func (s *Storage) EAddressRegistered(ctx context.Context, eaddress string) (bool, error) {
	exists, err := s.client.Exists(ctx, eaddressIndexKey(eaddress)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Token operations

func (s *Storage) SaveToken(ctx context.Context, tok *model.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}

	// The TTL only reclaims space; callers still check expiry themselves
	ttl := time.Until(tok.ExpiresAt)
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, tokenKey(tok.Secret), data, ttl).Err()
}

func (s *Storage) GetToken(ctx context.Context, secret string) (*model.Token, error) {
	var tok model.Token
	if err := s.getJSON(ctx, tokenKey(secret), &tok, model.ErrTokenNotFound); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (s *Storage) DeleteToken(ctx context.Context, secret string) error {
	return s.client.Del(ctx, tokenKey(secret)).Err()
}

// Roster operations

func (s *Storage) SaveRosterEntry(ctx context.Context, entry *model.RosterEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := rosterKey(entry.Username)
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, rosterIndexKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRosterEntry(ctx context.Context, username string) (*model.RosterEntry, error) {
	var entry model.RosterEntry
	if err := s.getJSON(ctx, rosterKey(username), &entry, model.ErrPlayerNotFound); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Storage) ListRoster(ctx context.Context) ([]*model.RosterEntry, error) {
	values, err := s.membersOf(ctx, rosterIndexKey())
	if err != nil {
		return nil, err
	}

	entries := make([]*model.RosterEntry, 0, len(values))
	for _, val := range values {
		var entry model.RosterEntry
		if err := json.Unmarshal([]byte(val), &entry); err != nil {
			continue // Skip invalid data
		}
		entries = append(entries, &entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Username < entries[j].Username })
	return entries, nil
}

// Game operations

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}

	key := gameKey(game.ID)
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.cfg.GameTTL)
	for _, p := range game.Players {
		indexKey := gamesForPlayerIndexKey(p)
		pipe.SAdd(ctx, indexKey, key)
		if s.cfg.GameTTL > 0 {
			pipe.Expire(ctx, indexKey, s.cfg.GameTTL) // Keep index TTL in sync
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	var game model.Game
	if err := s.getJSON(ctx, gameKey(id), &game, model.ErrGameNotFound); err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *Storage) ListGamesForPlayer(ctx context.Context, username string) ([]*model.Game, error) {
	values, err := s.membersOf(ctx, gamesForPlayerIndexKey(username))
	if err != nil {
		return nil, err
	}

	games := make([]*model.Game, 0, len(values))
	for _, val := range values {
		var game model.Game
		if err := json.Unmarshal([]byte(val), &game); err != nil {
			continue // Skip invalid data
		}
		games = append(games, &game)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].CreatedAt.Before(games[j].CreatedAt) })
	return games, nil
}

func (s *Storage) getJSON(ctx context.Context, key string, dest any, notFound error) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

// membersOf fetches the values of every key in an index set with one MGET.
// Keys that have expired are skipped.
func (s *Storage) membersOf(ctx context.Context, indexKey string) ([]string, error) {
	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		out = append(out, str)
	}
	return out, nil
}
