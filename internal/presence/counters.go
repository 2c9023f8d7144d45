package presence

import (
	"sync"

	"github.com/bsi-games/bsi/internal/model"
)

// OnlineChecker reports whether a player is known to be online
type OnlineChecker interface {
	IsOnline(player string) bool
}

// Snapshot is a point in time copy of the counters
type Snapshot struct {
	GameUpdated uint64
	GameCreated uint64
}

// Counters count game signals. Consumers react to a change in value by
// re-pulling game state; the values themselves carry no meaning.
type Counters struct {
	online OnlineChecker

	mu        sync.Mutex
	snap      Snapshot
	listeners []counterSub
	nextID    int
}

type counterSub struct {
	id int
	fn func(Snapshot)
}

// NewCounters creates zeroed counters
func NewCounters(online OnlineChecker) *Counters {
	return &Counters{online: online}
}

// Attach subscribes the counters to push events
func (c *Counters) Attach(src Source) (detach func()) {
	return src.OnEvent(c.HandleEvent)
}

// HandleEvent counts game signals. A game created by a player already
// known to be online is not counted.
func (c *Counters) HandleEvent(ev model.Event) {
	c.mu.Lock()
	switch e := ev.(type) {
	case model.GameUpdated:
		c.snap.GameUpdated++
	case model.GameCreated:
		if c.online.IsOnline(e.Player) {
			c.mu.Unlock()
			return
		}
		c.snap.GameCreated++
	default:
		c.mu.Unlock()
		return
	}
	snap := c.snap
	subs := make([]counterSub, len(c.listeners))
	copy(subs, c.listeners)
	c.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}

// Snapshot returns the current counter values
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// OnChange registers a listener called with the new values after each increment
func (c *Counters) OnChange(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, counterSub{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.listeners {
			if sub.id == id {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}
