package session

import (
	"context"
	"sync"

	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/push"
)

// fakeChannel mimics the push channel's state surface; tests drive transitions
type fakeChannel struct {
	mu        sync.Mutex
	state     push.State
	enabled   bool
	enables   int
	disables  int
	auths     []model.Credential
	sent      []model.OutboundMessage
	listeners []push.StateListener
}

func (f *fakeChannel) Enable() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = true
	f.enables++
}

func (f *fakeChannel) Disable() {
	f.mu.Lock()
	f.enabled = false
	f.disables++
	st := f.state
	f.mu.Unlock()

	if st != push.Disconnected {
		f.transition(push.Disconnected)
	}
}

func (f *fakeChannel) State() push.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeChannel) SendAuthorization(cred model.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state < push.Connected {
		return push.ErrNotConnected
	}
	f.auths = append(f.auths, cred)
	return nil
}

func (f *fakeChannel) Send(msg model.OutboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state < push.Connected {
		return push.ErrNotConnected
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeChannel) OnStateChange(fn push.StateListener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	idx := len(f.listeners) - 1
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listeners[idx] = nil
	}
}

func (f *fakeChannel) transition(to push.State) {
	f.mu.Lock()
	from := f.state
	f.state = to
	ls := append([]push.StateListener(nil), f.listeners...)
	f.mu.Unlock()

	for _, fn := range ls {
		if fn != nil {
			fn(from, to)
		}
	}
}

// connect walks Disconnected to Authorized
func (f *fakeChannel) connect() {
	f.transition(push.Connecting)
	f.transition(push.Connected)
	f.transition(push.Authorized)
}

func (f *fakeChannel) authorizations() []model.Credential {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Credential(nil), f.auths...)
}

func (f *fakeChannel) messages() []model.OutboundMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.OutboundMessage(nil), f.sent...)
}

func (f *fakeChannel) isEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

// journal records the order of observable steps across goroutines
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type fakeAuth struct {
	journal   *journal
	cred      *model.Credential
	signInErr error
	revokeErr error
}

func (a *fakeAuth) SignIn(ctx context.Context, username, password string) (*model.Credential, error) {
	if a.signInErr != nil {
		return nil, a.signInErr
	}
	return a.cred, nil
}

func (a *fakeAuth) Revoke(ctx context.Context, cred model.Credential) error {
	a.journal.add("revoke " + cred.Secret)
	return a.revokeErr
}
