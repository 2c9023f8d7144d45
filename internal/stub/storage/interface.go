package storage

import (
	"context"

	"github.com/bsi-games/bsi/internal/model"
)

// Storage defines persistence for the stand-in services
type Storage interface {
	// Account operations
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, username string) (*model.RegisteredPlayer, error)
	EAddressRegistered(ctx context.Context, eaddress string) (bool, error)

	// Token operations
	SaveToken(ctx context.Context, tok *model.Token) error
	GetToken(ctx context.Context, secret string) (*model.Token, error)
	DeleteToken(ctx context.Context, secret string) error

	// Roster operations
	SaveRosterEntry(ctx context.Context, entry *model.RosterEntry) error
	GetRosterEntry(ctx context.Context, username string) (*model.RosterEntry, error)
	ListRoster(ctx context.Context) ([]*model.RosterEntry, error)

	// Game operations
	SaveGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	ListGamesForPlayer(ctx context.Context, username string) ([]*model.Game, error)
}
