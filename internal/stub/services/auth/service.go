package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bsi-games/bsi/internal/dependencies/clock"
	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/stub/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrDuplicate          = errors.New("username or eaddress already registered")
	ErrMissingField       = errors.New("username, eaddress and password are required")
)

// TokenKind is the token type the service issues
const TokenKind = "bearer"

// Config holds configuration for the auth service
type Config struct {
	TokenLifetime time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		TokenLifetime: time.Hour,
	}
}

// Service registers accounts and issues, revokes and validates tokens
type Service struct {
	storage  storage.Storage
	clock    clock.Clock
	lifetime time.Duration
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, cfg Config) *Service {
	if cfg.TokenLifetime == 0 {
		cfg.TokenLifetime = DefaultConfig().TokenLifetime
	}
	return &Service{
		storage:  storage,
		clock:    clock,
		lifetime: cfg.TokenLifetime,
	}
}

// Register creates an account. Usernames and eaddresses are unique.
func (s *Service) Register(ctx context.Context, username, eaddress, password string) error {
	if username == "" || eaddress == "" || password == "" {
		return ErrMissingField
	}

	_, err := s.storage.GetRegisteredPlayer(ctx, username)
	if err == nil {
		return ErrDuplicate
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return err
	}
	taken, err := s.storage.EAddressRegistered(ctx, eaddress)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicate
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.storage.SaveRegisteredPlayer(ctx, &model.RegisteredPlayer{
		Username:     username,
		EAddress:     eaddress,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	})
}

// Issue checks the password and grants a fresh token
func (s *Service) Issue(ctx context.Context, username, password string) (*model.Token, error) {
	rp, err := s.storage.GetRegisteredPlayer(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rp.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.clock.Now()
	tok := &model.Token{
		Kind:      TokenKind,
		Secret:    uuid.NewString(),
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: clock.After(s.clock, s.lifetime),
	}
	if err := s.storage.SaveToken(ctx, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// Revoke deletes a token. Unknown tokens are an error.
func (s *Service) Revoke(ctx context.Context, secret string) error {
	if _, err := s.storage.GetToken(ctx, secret); err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	return s.storage.DeleteToken(ctx, secret)
}

// Introspect returns the token if it is known and still active
func (s *Service) Introspect(ctx context.Context, secret string) (*model.Token, error) {
	tok, err := s.storage.GetToken(ctx, secret)
	if err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !tok.Active(s.clock.Now()) {
		return nil, ErrInvalidToken
	}
	return tok, nil
}

// ExpiresIn returns the whole seconds the token has left
func (s *Service) ExpiresIn(tok *model.Token) int64 {
	return int64(clock.Remaining(s.clock, tok.ExpiresAt) / time.Second)
}

// ValidateBearer resolves an authorization value of the form "<kind> <secret>"
// to the username that owns the token
func (s *Service) ValidateBearer(ctx context.Context, header string) (string, error) {
	kind, secret, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(kind, TokenKind) || secret == "" {
		return "", ErrInvalidToken
	}
	tok, err := s.Introspect(ctx, secret)
	if err != nil {
		return "", err
	}
	return tok.Username, nil
}
