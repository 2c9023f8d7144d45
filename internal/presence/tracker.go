package presence

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/bsi-games/bsi/internal/metrics"
	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/push"
)

// ChangeKind names the container that changed
type ChangeKind int

const (
	OnlineChanged ChangeKind = iota
	ActiveGamesChanged
)

func (k ChangeKind) String() string {
	if k == OnlineChanged {
		return "online"
	}
	return "active_games"
}

// Change is emitted after a container's contents changed
type Change struct {
	Kind ChangeKind
}

type changeSub struct {
	id int
	fn func(Change)
}

// Source is the push channel surface the tracker subscribes to
type Source interface {
	OnStateChange(fn push.StateListener) func()
	OnEvent(fn push.EventListener) func()
}

// Tracker maintains the set of online players and the per opponent
// active game index. Both are only populated while the push channel is
// Authorized and are cleared on entering Connected and on leaving Authorized.
type Tracker struct {
	logger *slog.Logger

	mu         sync.RWMutex
	authorized bool
	online     map[string]struct{}
	active     map[string]model.GameID
	listeners  []changeSub
	nextID     int
}

// NewTracker creates an empty tracker
func NewTracker(logger *slog.Logger) *Tracker {
	return &Tracker{
		logger: logger.With(slog.String("component", "presence")),
		online: make(map[string]struct{}),
		active: make(map[string]model.GameID),
	}
}

// Attach subscribes the tracker to a push channel
func (t *Tracker) Attach(src Source) (detach func()) {
	offState := src.OnStateChange(t.HandleStateChange)
	offEvent := src.OnEvent(t.HandleEvent)
	return func() {
		offState()
		offEvent()
	}
}

// HandleStateChange applies a push channel transition
func (t *Tracker) HandleStateChange(from, to push.State) {
	t.mu.Lock()
	t.authorized = to == push.Authorized
	var changes []Change
	if from == push.Authorized || to == push.Connected {
		changes = t.clearLocked()
	}
	t.mu.Unlock()

	t.notify(changes)
}

// HandleEvent applies an inbound push event
func (t *Tracker) HandleEvent(ev model.Event) {
	t.mu.Lock()
	if !t.authorized {
		t.mu.Unlock()
		return
	}

	var changes []Change
	switch e := ev.(type) {
	case model.PlayerOnline:
		if _, ok := t.online[e.Player]; !ok && e.Player != "" {
			t.online[e.Player] = struct{}{}
			changes = append(changes, Change{Kind: OnlineChanged})
		}
	case model.PlayerOffline:
		if _, ok := t.online[e.Player]; ok {
			delete(t.online, e.Player)
			changes = append(changes, Change{Kind: OnlineChanged})
		}
	case model.GameActive:
		if cur, ok := t.active[e.Player]; (!ok || cur != e.GameID) && e.Player != "" {
			t.active[e.Player] = e.GameID
			changes = append(changes, Change{Kind: ActiveGamesChanged})
		}
	case model.GameInactive:
		if _, ok := t.active[e.Player]; ok {
			delete(t.active, e.Player)
			changes = append(changes, Change{Kind: ActiveGamesChanged})
		}
	}
	t.updateGaugesLocked()
	t.mu.Unlock()

	t.notify(changes)
}

func (t *Tracker) clearLocked() []Change {
	var changes []Change
	if len(t.online) > 0 {
		t.online = make(map[string]struct{})
		changes = append(changes, Change{Kind: OnlineChanged})
	}
	if len(t.active) > 0 {
		t.active = make(map[string]model.GameID)
		changes = append(changes, Change{Kind: ActiveGamesChanged})
	}
	t.updateGaugesLocked()
	return changes
}

func (t *Tracker) updateGaugesLocked() {
	metrics.OnlinePlayers.Set(float64(len(t.online)))
	metrics.ActiveGames.Set(float64(len(t.active)))
}

// OnlinePlayers returns the online players, sorted
func (t *Tracker) OnlinePlayers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	players := make([]string, 0, len(t.online))
	for p := range t.online {
		players = append(players, p)
	}
	sort.Strings(players)
	return players
}

// IsOnline reports whether the player is known to be online
func (t *Tracker) IsOnline(player string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[player]
	return ok
}

// ActiveGames returns a copy of the opponent to game index
func (t *Tracker) ActiveGames() map[string]model.GameID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]model.GameID, len(t.active))
	for k, v := range t.active {
		out[k] = v
	}
	return out
}

// ActiveGame returns the game the opponent has open, if any
func (t *Tracker) ActiveGame(opponent string) (model.GameID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.active[opponent]
	return id, ok
}

// OnChange registers a change listener and returns its unsubscribe function
func (t *Tracker) OnChange(fn func(Change)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	t.listeners = append(t.listeners, changeSub{id: id, fn: fn})

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, sub := range t.listeners {
			if sub.id == id {
				t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
				return
			}
		}
	}
}

func (t *Tracker) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}
	t.mu.RLock()
	subs := make([]changeSub, len(t.listeners))
	copy(subs, t.listeners)
	t.mu.RUnlock()

	for _, c := range changes {
		t.logger.Debug("presence changed", slog.String("kind", c.Kind.String()))
		for _, sub := range subs {
			sub.fn(c)
		}
	}
}
