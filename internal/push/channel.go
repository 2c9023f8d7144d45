package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/bsi-games/bsi/internal/metrics"
	"github.com/bsi-games/bsi/internal/model"
)

// ErrNotConnected is returned when sending without an open connection
var ErrNotConnected = errors.New("push channel not connected")

// Config holds push channel configuration
type Config struct {
	URL              string
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

// DefaultConfig returns default push channel configuration
func DefaultConfig() Config {
	return Config{
		URL:              "ws://localhost:3000/",
		InitialBackoff:   500 * time.Millisecond,
		MaxBackoff:       30 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// StateListener observes state transitions
type StateListener func(from, to State)

// EventListener observes decoded inbound events
type EventListener func(ev model.Event)

type stateSub struct {
	id int
	fn StateListener
}

type eventSub struct {
	id int
	fn EventListener
}

type connection struct {
	id      string
	conn    Conn
	writeMu sync.Mutex
}

func (c *connection) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(data)
}

type command struct {
	enable bool
	ack    chan struct{}
}

type dialResult struct {
	attempt uint64
	conn    Conn
	err     error
}

type inbound struct {
	connID string
	data   []byte
	err    error
}

// Channel maintains the single push connection to the game service.
// All state transitions and listener callbacks happen on one run goroutine,
// so listeners never observe an event from a connection older than the
// last Connected transition. Enable, Disable and Close must not be called
// from a listener.
type Channel struct {
	cfg    Config
	dialer Dialer
	logger *slog.Logger

	mu             sync.Mutex
	state          State
	conn           *connection
	stateListeners []stateSub
	eventListeners []eventSub
	nextID         int

	commands  chan command
	dialed    chan dialResult
	inbound   chan inbound
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// Owned by the run goroutine
	enabled    bool
	attempt    uint64
	cancelDial context.CancelFunc
	retry      *time.Timer
	backoff    *backoff.ExponentialBackOff
}

// New creates a push channel and starts its run loop. The channel stays
// Disconnected until Enable is called.
func New(cfg Config, dialer Dialer, logger *slog.Logger) *Channel {
	c := &Channel{
		cfg:      cfg,
		dialer:   dialer,
		logger:   logger.With(slog.String("component", "push")),
		commands: make(chan command),
		dialed:   make(chan dialResult),
		inbound:  make(chan inbound),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		backoff: backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(cfg.InitialBackoff),
			backoff.WithMaxInterval(cfg.MaxBackoff),
			backoff.WithMaxElapsedTime(0),
		),
	}
	metrics.PushState.Set(float64(Disconnected))
	go c.run()
	return c
}

// State returns the current connection state
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Enable starts connecting and keeps reconnecting until Disable
func (c *Channel) Enable() {
	c.command(true)
}

// Disable closes the connection and stops reconnecting. Returns once the
// channel is Disconnected and listeners have been notified.
func (c *Channel) Disable() {
	c.command(false)
}

func (c *Channel) command(enable bool) {
	ack := make(chan struct{})
	select {
	case c.commands <- command{enable: enable, ack: ack}:
	case <-c.stopped:
		return
	}
	select {
	case <-ack:
	case <-c.stopped:
	}
}

// Close stops the run loop and closes any open connection
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	<-c.stopped
}

// Send writes an outbound message on the current connection
func (c *Channel) Send(msg model.OutboundMessage) error {
	c.mu.Lock()
	cn := c.conn
	c.mu.Unlock()

	if cn == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := cn.write(data); err != nil {
		return fmt.Errorf("failed to send %s: %w", msg.Type, err)
	}
	return nil
}

// SendAuthorization sends the credential to authorize the current connection
func (c *Channel) SendAuthorization(cred model.Credential) error {
	return c.Send(model.AuthorizationMessage(cred))
}

// OnStateChange registers a transition listener and returns its unsubscribe function
func (c *Channel) OnStateChange(fn StateListener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.stateListeners = append(c.stateListeners, stateSub{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.stateListeners {
			if sub.id == id {
				c.stateListeners = append(c.stateListeners[:i], c.stateListeners[i+1:]...)
				return
			}
		}
	}
}

// OnEvent registers an inbound event listener and returns its unsubscribe function
func (c *Channel) OnEvent(fn EventListener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.eventListeners = append(c.eventListeners, eventSub{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.eventListeners {
			if sub.id == id {
				c.eventListeners = append(c.eventListeners[:i], c.eventListeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Channel) run() {
	defer close(c.stopped)

	for {
		var retryC <-chan time.Time
		if c.retry != nil {
			retryC = c.retry.C
		}

		select {
		case <-c.done:
			c.enabled = false
			c.teardown()
			return

		case cmd := <-c.commands:
			c.apply(cmd.enable)
			close(cmd.ack)

		case res := <-c.dialed:
			c.handleDial(res)

		case msg := <-c.inbound:
			c.handleInbound(msg)

		case <-retryC:
			c.retry = nil
			c.connect()
		}
	}
}

func (c *Channel) apply(enable bool) {
	if enable == c.enabled {
		return
	}
	c.enabled = enable

	if enable {
		c.logger.Info("push channel enabled")
		c.backoff.Reset()
		c.connect()
		return
	}
	c.logger.Info("push channel disabled")
	c.teardown()
}

// connect starts a dial attempt in the background
func (c *Channel) connect() {
	c.attempt++
	attempt := c.attempt

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelDial = cancel
	c.setState(Connecting)

	go func() {
		conn, err := c.dialer.Dial(ctx, c.cfg.URL)
		select {
		case c.dialed <- dialResult{attempt: attempt, conn: conn, err: err}:
		case <-c.done:
			if conn != nil {
				_ = conn.Close()
			}
		}
	}()
}

func (c *Channel) handleDial(res dialResult) {
	if res.attempt != c.attempt || !c.enabled {
		if res.conn != nil {
			_ = res.conn.Close()
		}
		return
	}
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}

	if res.err != nil {
		metrics.PushDialAttempts.WithLabelValues("failure").Inc()
		c.logger.Warn("push dial failed", slog.String("error", res.err.Error()))
		c.setState(Disconnected)
		c.scheduleRetry()
		return
	}

	metrics.PushDialAttempts.WithLabelValues("success").Inc()
	c.backoff.Reset()

	cn := &connection{id: uuid.NewString(), conn: res.conn}
	c.mu.Lock()
	c.conn = cn
	c.mu.Unlock()

	c.logger.Info("push connection opened", slog.String("conn_id", cn.id))
	go c.readLoop(cn)
	c.setState(Connected)
}

func (c *Channel) readLoop(cn *connection) {
	for {
		data, err := cn.conn.ReadMessage()
		select {
		case c.inbound <- inbound{connID: cn.id, data: data, err: err}:
		case <-c.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (c *Channel) handleInbound(msg inbound) {
	c.mu.Lock()
	cur := c.conn
	c.mu.Unlock()

	// Messages from a replaced connection are dropped
	if cur == nil || cur.id != msg.connID {
		return
	}

	if msg.err != nil {
		c.logger.Warn("push connection lost",
			slog.String("conn_id", msg.connID),
			slog.String("error", msg.err.Error()))
		c.dropConnection()
		c.setState(Disconnected)
		if c.enabled {
			c.scheduleRetry()
		}
		return
	}

	ev, err := DecodeEvent(msg.data)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, ErrUnknownEvent) {
			reason = "unknown_type"
		}
		metrics.PushDropped.WithLabelValues(reason).Inc()
		c.logger.Debug("dropping push message", slog.String("error", err.Error()))
		return
	}
	metrics.PushEvents.WithLabelValues(string(ev.Type())).Inc()

	if auth, ok := ev.(model.AuthorizationResult); ok {
		switch {
		case !auth.Authorized:
			c.logger.Warn("push authorization refused", slog.String("conn_id", msg.connID))
		case c.State() == Connected:
			c.setState(Authorized)
		}
	}

	c.emit(ev)
}

func (c *Channel) scheduleRetry() {
	delay := c.backoff.NextBackOff()
	if delay == backoff.Stop {
		delay = c.cfg.MaxBackoff
	}
	c.logger.Debug("push reconnect scheduled", slog.Duration("delay", delay))
	c.retry = time.NewTimer(delay)
}

// teardown stops any pending attempt and closes the connection
func (c *Channel) teardown() {
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	c.attempt++
	c.dropConnection()
	c.setState(Disconnected)
}

func (c *Channel) dropConnection() {
	c.mu.Lock()
	cn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if cn != nil {
		_ = cn.conn.Close()
	}
}

func (c *Channel) setState(to State) {
	c.mu.Lock()
	from := c.state
	if from == to {
		c.mu.Unlock()
		return
	}
	c.state = to
	subs := make([]stateSub, len(c.stateListeners))
	copy(subs, c.stateListeners)
	c.mu.Unlock()

	metrics.PushState.Set(float64(to))
	metrics.PushTransitions.WithLabelValues(to.String()).Inc()
	c.logger.Debug("push state changed", slog.String("from", from.String()), slog.String("to", to.String()))

	for _, sub := range subs {
		sub.fn(from, to)
	}
}

func (c *Channel) emit(ev model.Event) {
	c.mu.Lock()
	subs := make([]eventSub, len(c.eventListeners))
	copy(subs, c.eventListeners)
	c.mu.Unlock()

	for _, sub := range subs {
		sub.fn(ev)
	}
}
