package roster

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bsi-games/bsi/internal/dependencies/clock"
	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/stub/storage"
)

// Service maintains the player roster and presence flags
type Service struct {
	storage storage.Storage
	clock   clock.Clock
}

// New creates a new roster Service
func New(storage storage.Storage, clock clock.Clock) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
	}
}

// Upsert adds the player to the roster if absent and returns their entry
func (s *Service) Upsert(ctx context.Context, username string) (*model.RosterEntry, error) {
	entry, err := s.storage.GetRosterEntry(ctx, username)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, err
	}

	entry = &model.RosterEntry{
		ID:       uuid.NewString(),
		Username: username,
		JoinDate: s.clock.Now(),
		Visible:  true,
	}
	if err := s.storage.SaveRosterEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns roster entries, only visible ones when visibleOnly is set
func (s *Service) List(ctx context.Context, visibleOnly bool) ([]*model.RosterEntry, error) {
	entries, err := s.storage.ListRoster(ctx)
	if err != nil {
		return nil, err
	}
	if !visibleOnly {
		return entries, nil
	}

	visible := make([]*model.RosterEntry, 0, len(entries))
	for _, e := range entries {
		if e.Visible {
			visible = append(visible, e)
		}
	}
	return visible, nil
}

// SetPresence records whether the player is online.
// Returns true when the flag actually changed.
func (s *Service) SetPresence(ctx context.Context, username string, presence bool) (bool, error) {
	entry, err := s.storage.GetRosterEntry(ctx, username)
	if err != nil {
		return false, err
	}
	if entry.Presence == presence {
		return false, nil
	}
	entry.Presence = presence
	if err := s.storage.SaveRosterEntry(ctx, entry); err != nil {
		return false, err
	}
	return true, nil
}
