package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bsi-games/bsi/internal/authclient"
	"github.com/bsi-games/bsi/internal/credential"
	"github.com/bsi-games/bsi/internal/dependencies/clock"
	"github.com/bsi-games/bsi/internal/gateway"
	"github.com/bsi-games/bsi/internal/presence"
	"github.com/bsi-games/bsi/internal/push"
	"github.com/bsi-games/bsi/internal/session"
)

// Client wires the session core for one CLI invocation
type Client struct {
	Store    *credential.Store
	Gateway  *gateway.Gateway
	Channel  *push.Channel
	Tracker  *presence.Tracker
	Counters *presence.Counters
	Auth     *authclient.Client
	Session  *session.Coordinator

	detach []func()
}

// NewClient builds the core components against the configured services
func NewClient(cfg *Config, logger *slog.Logger) *Client {
	clk := clock.New()

	gwCfg := gateway.DefaultConfig()
	gwCfg.BaseURL = cfg.ServerURL

	pushCfg := push.DefaultConfig()
	pushCfg.URL = cfg.WSServerURL

	authCfg := authclient.DefaultConfig()
	authCfg.BaseURL = cfg.AuthServerURL

	c := &Client{
		Store:   credential.NewStore(clk),
		Gateway: gateway.New(gwCfg, logger),
		Channel: push.New(pushCfg, push.NewWebsocketDialer(pushCfg.HandshakeTimeout, pushCfg.WriteTimeout), logger),
		Tracker: presence.NewTracker(logger),
		Auth:    authclient.New(authCfg, clk, logger),
	}
	c.Counters = presence.NewCounters(c.Tracker)
	c.detach = append(c.detach, c.Tracker.Attach(c.Channel), c.Counters.Attach(c.Channel))
	c.Session = session.New(session.DefaultConfig(), c.Store, c.Gateway, c.Channel, c.Auth, logger)
	return c
}

// Close tears the components down in reverse order
func (c *Client) Close() {
	c.Session.Close()
	for _, d := range c.detach {
		d()
	}
	c.Channel.Close()
}

// withSession signs in, runs fn and signs out again
func withSession(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cfg.requireCredentials(); err != nil {
		return err
	}
	if err := client.Session.SignIn(ctx, cfg.Username, cfg.Password); err != nil {
		return fmt.Errorf("sign in failed: %w", err)
	}

	runErr := fn(ctx)

	if err := client.Session.SignOut(context.WithoutCancel(ctx)); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// RenewIfExpired signs in again when the held credential has expired. The
// new credential replaces the old one in place, which reauthorizes the push
// channel without tearing the session down.
func (c *Client) RenewIfExpired(ctx context.Context, username, password string) (bool, error) {
	if !c.Store.Expired() {
		return false, nil
	}
	if err := c.Session.SignIn(ctx, username, password); err != nil {
		return false, fmt.Errorf("renew expired credential: %w", err)
	}
	return true, nil
}
