package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/bsi-games/bsi/internal/metrics"
	"github.com/bsi-games/bsi/internal/model"
)

// Validator resolves an authorization value to a username
type Validator interface {
	ValidateBearer(ctx context.Context, header string) (string, error)
}

type authorization struct {
	client   *Client
	username string
}

type delivery struct {
	to  string // empty means every authorized client
	msg []byte
}

// Hub tracks push connections and routes messages to signed-in players
type Hub struct {
	logger *slog.Logger

	clients map[*Client]struct{}
	byUser  map[string]map[*Client]struct{}
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	authorize  chan authorization
	deliver    chan delivery
	done       chan struct{}
	closeOnce  sync.Once
}

// New creates a Hub. Run must be started before clients connect.
func New(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger.With(slog.String("component", "hub")),
		clients:    make(map[*Client]struct{}),
		byUser:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		authorize:  make(chan authorization),
		deliver:    make(chan delivery, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("push hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			metrics.StubPushClients.Set(float64(count))
			h.logger.Info("push client registered", slog.Int("total_clients", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if h.unindexLocked(client) {
					h.announceLocked(client.username, false, nil)
				}
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()
				metrics.StubPushClients.Set(float64(count))
				h.logger.Info("push client unregistered",
					slog.String("username", client.username),
					slog.Int("total_clients", count))
			} else {
				h.mu.Unlock()
			}

		case a := <-h.authorize:
			h.mu.Lock()
			if _, ok := h.clients[a.client]; ok {
				h.authorizeLocked(a.client, a.username)
			}
			h.mu.Unlock()

		case d := <-h.deliver:
			h.mu.RLock()
			if d.to == "" {
				for client := range h.clients {
					if client.username != "" {
						h.send(client, d.msg)
					}
				}
			} else {
				for client := range h.byUser[d.to] {
					h.send(client, d.msg)
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			count := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.byUser = make(map[string]map[*Client]struct{})
			h.mu.Unlock()
			metrics.StubPushClients.Set(0)
			h.logger.Info("push hub stopped", slog.Int("disconnected_clients", count))
			return
		}
	}
}

// authorizeLocked binds client to username and acknowledges. A newly
// authorized client is told who is already online, and the player's first
// connection is announced to everyone else.
func (h *Hub) authorizeLocked(client *Client, username string) {
	if client.username != username && h.unindexLocked(client) {
		h.announceLocked(client.username, false, client)
	}
	client.username = username
	h.send(client, mustJSON(authorizationMessage{Type: model.EventAuthorization, Authorized: username != ""}))
	if username == "" {
		return
	}

	first := len(h.byUser[username]) == 0
	if h.byUser[username] == nil {
		h.byUser[username] = make(map[*Client]struct{})
	}
	h.byUser[username][client] = struct{}{}

	others := make([]string, 0, len(h.byUser))
	for user := range h.byUser {
		if user != username {
			others = append(others, user)
		}
	}
	sort.Strings(others)
	for _, user := range others {
		h.send(client, mustJSON(playerMessage{Type: model.EventPlayerOnline, Player: user}))
	}

	if first {
		h.announceLocked(username, true, client)
	}
}

// announceLocked sends a presence change to every authorized client but skip
func (h *Hub) announceLocked(username string, online bool, skip *Client) {
	typ := model.EventPlayerOffline
	if online {
		typ = model.EventPlayerOnline
	}
	msg := mustJSON(playerMessage{Type: typ, Player: username})
	for client := range h.clients {
		if client != skip && client.username != "" {
			h.send(client, msg)
		}
	}
}

// unindexLocked removes the client from the per-user index and reports
// whether it was the player's last connection
func (h *Hub) unindexLocked(client *Client) bool {
	if client.username == "" {
		return false
	}
	set, ok := h.byUser[client.username]
	if !ok {
		return false
	}
	if _, ok := set[client]; !ok {
		return false
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.byUser, client.username)
		return true
	}
	return false
}

func (h *Hub) send(client *Client, msg []byte) {
	select {
	case client.send <- msg:
	default:
		h.logger.Warn("push message dropped - client buffer full",
			slog.String("username", client.username))
	}
}

func (h *Hub) enqueue(d delivery) {
	select {
	case h.deliver <- d:
	case <-h.done:
	default:
		h.logger.Warn("push delivery dropped - hub buffer full")
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Authorize binds the client to a username; empty marks the attempt refused
func (h *Hub) Authorize(client *Client, username string) {
	select {
	case h.authorize <- authorization{client: client, username: username}:
	case <-h.done:
	}
}

// Close shuts down the hub and disconnects every client
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Online reports whether the player has an authorized connection
func (h *Hub) Online(username string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[username]) > 0
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastPresence tells every signed-in player that someone came or went
func (h *Hub) BroadcastPresence(username string, online bool) {
	typ := model.EventPlayerOffline
	if online {
		typ = model.EventPlayerOnline
	}
	h.enqueue(delivery{msg: mustJSON(playerMessage{Type: typ, Player: username})})
}

// NotifyGameCreated tells the opponent that creator started a game with them
func (h *Hub) NotifyGameCreated(g *model.Game, creator string) {
	h.enqueue(delivery{
		to:  g.Opponent(creator),
		msg: mustJSON(playerMessage{Type: model.EventGameCreated, Player: creator}),
	})
}

// NotifyGameUpdated tells both players that the game changed
func (h *Hub) NotifyGameUpdated(g *model.Game) {
	msg := mustJSON(playerMessage{Type: model.EventGameUpdated})
	for _, p := range g.Players {
		h.enqueue(delivery{to: p, msg: msg})
	}
}

// relay forwards a view announcement to the named opponent, stamped with the sender
func (h *Hub) relay(from string, in model.OutboundMessage) {
	if in.Player == "" || in.Player == from {
		return
	}
	out := viewMessage{Type: in.Type, Player: from, GameID: in.GameID}
	h.enqueue(delivery{to: in.Player, msg: mustJSON(out)})
}

type playerMessage struct {
	Type   model.EventType `json:"type"`
	Player string          `json:"player,omitempty"`
}

type viewMessage struct {
	Type   model.EventType `json:"type"`
	Player string          `json:"player"`
	GameID model.GameID    `json:"gameId,omitempty"`
}

type authorizationMessage struct {
	Type       model.EventType `json:"type"`
	Authorized bool            `json:"authorized"`
}

// mustJSON marshals message types that cannot fail to encode
func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
