package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bsi-games/bsi/internal/credential"
	"github.com/bsi-games/bsi/internal/gateway"
	"github.com/bsi-games/bsi/internal/metrics"
	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/push"
)

// Gateway is the request gateway surface the coordinator drives
type Gateway interface {
	Install(source gateway.CredentialSource) (*gateway.Handle, error)
	UpsertRoster(ctx context.Context) error
	SetPresence(ctx context.Context, present bool) error
}

// Channel is the push channel surface the coordinator drives
type Channel interface {
	Enable()
	Disable()
	State() push.State
	SendAuthorization(cred model.Credential) error
	Send(msg model.OutboundMessage) error
	OnStateChange(fn push.StateListener) func()
}

// Authenticator obtains and revokes credentials
type Authenticator interface {
	SignIn(ctx context.Context, username, password string) (*model.Credential, error)
	Revoke(ctx context.Context, cred model.Credential) error
}

// Config holds coordinator configuration
type Config struct {
	BestEffortTimeout time.Duration
}

// DefaultConfig returns default coordinator configuration
func DefaultConfig() Config {
	return Config{
		BestEffortTimeout: 10 * time.Second,
	}
}

// Coordinator sequences the session lifecycle. It is the only component
// that installs or removes the gateway decorator and enables or disables
// the push channel, both in step with the credential store.
type Coordinator struct {
	cfg    Config
	store  *credential.Store
	gw     Gateway
	ch     Channel
	auth   Authenticator
	logger *slog.Logger

	mu         sync.Mutex
	handle     *gateway.Handle
	epoch      uint64
	views      map[model.GameID]string
	closed     bool
	signingOut bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	unsubs []func()

	// best-effort calls of the current session; SignOut cancels and drains them
	sessCtx    context.Context
	sessCancel context.CancelFunc
	inflight   sync.WaitGroup
}

// New creates a coordinator and subscribes it to the store and channel.
// A credential already present in the store is applied immediately.
func New(cfg Config, store *credential.Store, gw Gateway, ch Channel, auth Authenticator, logger *slog.Logger) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		cfg:    cfg,
		store:  store,
		gw:     gw,
		ch:     ch,
		auth:   auth,
		logger: logger.With(slog.String("component", "session")),
		views:  make(map[model.GameID]string),
		ctx:    ctx,
		cancel: cancel,
	}
	c.sessCtx, c.sessCancel = context.WithCancel(ctx)

	c.unsubs = append(c.unsubs,
		store.OnChange(c.onCredential),
		ch.OnStateChange(c.onState),
	)
	if cred := store.Get(); cred != nil {
		c.onCredential(cred)
	}
	return c
}

// SignIn obtains a credential and makes it current
func (c *Coordinator) SignIn(ctx context.Context, username, password string) error {
	cred, err := c.auth.SignIn(ctx, username, password)
	if err != nil {
		return err
	}
	c.store.Set(cred)
	return nil
}

// SignOut withdraws the player's presence, revokes the token and clears
// the credential, in that order. Best-effort calls still in flight are
// cancelled and drained first so none of them lands after the presence
// removal. Presence removal is awaited whatever its outcome, since the
// service rejects it once the credential is gone. The credential is
// cleared even when revocation fails.
func (c *Coordinator) SignOut(ctx context.Context) error {
	cred := c.store.Get()
	if cred == nil {
		return nil
	}

	c.mu.Lock()
	c.epoch++
	c.signingOut = true
	cancelPending := c.sessCancel
	c.sessCtx, c.sessCancel = context.WithCancel(c.ctx)
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.signingOut = false
		c.mu.Unlock()
	}()

	cancelPending()
	c.inflight.Wait()

	if err := c.gw.SetPresence(ctx, false); err != nil {
		metrics.BestEffortFailures.WithLabelValues("setPresence").Inc()
		c.logger.Warn("failed to withdraw presence", slog.String("error", err.Error()))
	}

	var revokeErr error
	if c.auth != nil {
		revokeErr = c.auth.Revoke(ctx, *cred)
	}

	c.store.Clear()
	c.logger.Info("signed out")

	if revokeErr != nil {
		return fmt.Errorf("failed to revoke token: %w", revokeErr)
	}
	return nil
}

// Epoch identifies the current credential. It changes on every credential change.
func (c *Coordinator) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Valid reports whether work started under epoch still applies
func (c *Coordinator) Valid(epoch uint64) bool {
	return c.Epoch() == epoch
}

// OpenGame records an open view of a game against opponent and announces it.
// Open views are announced again after every reauthorization.
func (c *Coordinator) OpenGame(id model.GameID, opponent string) error {
	c.mu.Lock()
	c.views[id] = opponent
	c.mu.Unlock()

	if c.ch.State() != push.Authorized {
		return nil
	}
	return c.ch.Send(model.OutboundMessage{Type: model.EventGameActive, GameID: id, Player: opponent})
}

// CloseGame withdraws an open view
func (c *Coordinator) CloseGame(id model.GameID) error {
	c.mu.Lock()
	opponent, ok := c.views[id]
	delete(c.views, id)
	c.mu.Unlock()

	if !ok || c.ch.State() != push.Authorized {
		return nil
	}
	return c.ch.Send(model.OutboundMessage{Type: model.EventGameInactive, GameID: id, Player: opponent})
}

// Views returns the open game views, game to opponent
func (c *Coordinator) Views() map[model.GameID]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[model.GameID]string, len(c.views))
	for k, v := range c.views {
		out[k] = v
	}
	return out
}

// Close unsubscribes and waits for in-flight best-effort calls
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	c.cancel()
	c.wg.Wait()
}

func (c *Coordinator) onCredential(cred *model.Credential) {
	c.mu.Lock()
	c.epoch++

	if cred == nil {
		if c.handle != nil {
			c.handle.Remove()
			c.handle = nil
		}
		c.views = make(map[model.GameID]string)
		c.mu.Unlock()

		c.ch.Disable()
		return
	}

	replaced := c.handle != nil
	if !replaced {
		h, err := c.gw.Install(c.store)
		if err != nil {
			c.logger.Error("failed to install decorator", slog.String("error", err.Error()))
		} else {
			c.handle = h
		}
	}
	c.mu.Unlock()

	// A refreshed credential reauthorizes the open connection
	if replaced {
		if st := c.ch.State(); st == push.Connected || st == push.Authorized {
			if err := c.ch.SendAuthorization(*cred); err != nil {
				c.logger.Warn("failed to reauthorize push channel", slog.String("error", err.Error()))
			}
		}
	}
	c.ch.Enable()
}

func (c *Coordinator) onState(from, to push.State) {
	switch to {
	case push.Connected:
		cred := c.store.Get()
		if cred == nil {
			return
		}
		if err := c.ch.SendAuthorization(*cred); err != nil {
			c.logger.Warn("failed to send authorization", slog.String("error", err.Error()))
		}

	case push.Authorized:
		c.logger.Info("push channel authorized")
		c.registerPresence(c.Epoch())
		c.announceViews()
	}
}

// registerPresence upserts the roster entry then marks the player online.
// Both calls are best-effort.
func (c *Coordinator) registerPresence(epoch uint64) {
	c.mu.Lock()
	if c.closed || c.signingOut || c.handle == nil {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.inflight.Add(1)
	sessCtx := c.sessCtx
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer c.inflight.Done()
		c.bestEffort(sessCtx, epoch, "upsertRoster", c.gw.UpsertRoster)
		c.bestEffort(sessCtx, epoch, "setPresence", func(ctx context.Context) error {
			return c.gw.SetPresence(ctx, true)
		})
	}()
}

func (c *Coordinator) bestEffort(parent context.Context, epoch uint64, op string, fn func(ctx context.Context) error) {
	if !c.Valid(epoch) || parent.Err() != nil {
		c.logger.Debug("skipping stale call", slog.String("op", op))
		return
	}

	ctx, cancel := context.WithTimeout(parent, c.cfg.BestEffortTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		if parent.Err() != nil {
			c.logger.Debug("best-effort call cancelled", slog.String("op", op))
			return
		}
		metrics.BestEffortFailures.WithLabelValues(op).Inc()
		c.logger.Warn("best-effort call failed", slog.String("op", op), slog.String("error", err.Error()))
	}
}

func (c *Coordinator) announceViews() {
	views := c.Views()
	ids := make([]model.GameID, 0, len(views))
	for id := range views {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		msg := model.OutboundMessage{Type: model.EventGameActive, GameID: id, Player: views[id]}
		if err := c.ch.Send(msg); err != nil {
			c.logger.Warn("failed to announce game view", slog.String("game_id", string(id)), slog.String("error", err.Error()))
		}
	}
}
