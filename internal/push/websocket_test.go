package push

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/testutil"
)

// pushServer acknowledges authorization and then announces a player
type pushServer struct {
	upgrader websocket.Upgrader
	accepted atomic.Int32

	mu    sync.Mutex
	conns []*websocket.Conn
	auths []string
}

func (p *pushServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	p.accepted.Add(1)
	p.mu.Lock()
	p.conns = append(p.conns, conn)
	p.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg model.OutboundMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != model.EventAuthorization {
			continue
		}
		p.mu.Lock()
		p.auths = append(p.auths, msg.Token)
		p.mu.Unlock()

		_ = conn.WriteJSON(map[string]any{"type": "authorization", "authorized": true})
		_ = conn.WriteJSON(map[string]any{"type": "playerOnline", "player": "bob"})
	}
}

func (p *pushServer) dropAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.conns {
		_ = c.Close()
	}
	p.conns = nil
}

func (p *pushServer) tokens() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.auths...)
}

func TestChannelOverWebsocket(t *testing.T) {
	srv := &pushServer{}
	server := httptest.NewServer(srv)
	defer server.Close()

	cfg := DefaultConfig()
	cfg.URL = "ws" + strings.TrimPrefix(server.URL, "http") + "/"
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 50 * time.Millisecond

	ch := New(cfg, NewWebsocketDialer(cfg.HandshakeTimeout, cfg.WriteTimeout), testutil.NopLogger())
	defer ch.Close()

	cred := model.Credential{Kind: "bearer", Secret: "tok"}
	ch.OnStateChange(func(from, to State) {
		if to == Connected {
			assert.NoError(t, ch.SendAuthorization(cred))
		}
	})

	online := make(chan model.PlayerOnline, 8)
	ch.OnEvent(func(ev model.Event) {
		if e, ok := ev.(model.PlayerOnline); ok {
			online <- e
		}
	})

	ch.Enable()

	select {
	case e := <-online:
		assert.Equal(t, "bob", e.Player)
	case <-time.After(5 * time.Second):
		t.Fatal("no playerOnline event received")
	}
	assert.Equal(t, Authorized, ch.State())
	assert.Equal(t, []string{"bearer tok"}, srv.tokens())

	// Server side drop triggers a reconnect and a fresh authorization
	srv.dropAll()

	select {
	case <-online:
	case <-time.After(5 * time.Second):
		t.Fatal("channel did not reconnect")
	}
	require.Eventually(t, func() bool { return ch.State() == Authorized }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(2), srv.accepted.Load())
	assert.Equal(t, []string{"bearer tok", "bearer tok"}, srv.tokens())

	ch.Disable()
	assert.Equal(t, Disconnected, ch.State())
}
