package credential

import (
	"sync"

	"github.com/bsi-games/bsi/internal/dependencies/clock"
	"github.com/bsi-games/bsi/internal/model"
)

// Listener is called with the new credential (nil when cleared)
type Listener func(cred *model.Credential)

type subscription struct {
	id       int
	listener Listener
}

// Store holds the current credential and notifies dependents on change.
// It is the only owner of the credential; everything else reads it through Get.
type Store struct {
	clock clock.Clock

	mu        sync.RWMutex
	cred      *model.Credential
	listeners []subscription
	nextID    int
}

// NewStore creates an empty credential store
func NewStore(clk clock.Clock) *Store {
	return &Store{clock: clk}
}

// Get returns a copy of the current credential, or nil if there is none
func (s *Store) Get() *model.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return nil
	}
	c := *s.cred
	return &c
}

// Set replaces the credential and synchronously notifies every listener,
// in subscription order, before returning. Pass nil to clear.
func (s *Store) Set(cred *model.Credential) {
	s.mu.Lock()
	if cred != nil {
		c := *cred
		s.cred = &c
	} else {
		s.cred = nil
	}
	subs := make([]subscription, len(s.listeners))
	copy(subs, s.listeners)
	s.mu.Unlock()

	// Listeners run unlocked so they can call Get
	for _, sub := range subs {
		sub.listener(s.Get())
	}
}

// Clear removes the credential
func (s *Store) Clear() {
	s.Set(nil)
}

// Present reports whether a credential is held
func (s *Store) Present() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred != nil
}

// Expired reports whether the held credential has passed its expiry
func (s *Store) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred != nil && s.cred.ExpiredAt(s.clock.Now())
}

// OnChange registers a listener and returns a function that removes it.
// The returned function is safe to call more than once.
func (s *Store) OnChange(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, listener: l})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}
