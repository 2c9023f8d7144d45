package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/stub/api/response"
	"github.com/bsi-games/bsi/internal/stub/factory"
)

// testServer drives the router with recorded requests
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	return &testServer{
		handler: app.Handler(),
		app:     app,
	}
}

func (ts *testServer) request(method, target string, body any, token string) *httptest.ResponseRecorder {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	}

	req := httptest.NewRequest(method, target, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) form(method, target string, values map[string]string) *httptest.ResponseRecorder {
	form := url.Values{"client_id": {"bsi"}, "grant_type": {"password"}}
	for k, v := range values {
		form.Set(k, v)
	}

	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// signUp registers, signs in and joins the roster, returning the Authorization value
func (ts *testServer) signUp(t *testing.T, username string) string {
	t.Helper()

	rr := ts.form(http.MethodPost, "/auth/register", map[string]string{
		"username": username, "eaddress": username + "@example.com", "password": "secret",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.form(http.MethodPost, "/auth/token", map[string]string{"username": username, "password": "secret"})
	require.Equal(t, http.StatusOK, rr.Code)
	var tok response.Token
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tok))

	header := tok.TokenType + " " + tok.AccessToken
	rr = ts.request(http.MethodPost, "/api/roster", nil, header)
	require.Equal(t, http.StatusOK, rr.Code)
	return header
}

func (ts *testServer) createGame(t *testing.T, token, opponent string, color model.Color) model.GameID {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/games/othello/", model.GameParams{Opponent: opponent, UserColor: color}, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created response.Created
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestRegisterReportsDuplicate(t *testing.T) {
	ts := newTestServer(t)
	values := map[string]string{"username": "alice", "eaddress": "a@example.com", "password": "pw"}

	rr := ts.form(http.MethodPost, "/auth/register", values)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"registered"}`, rr.Body.String())

	rr = ts.form(http.MethodPost, "/auth/register", values)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"duplicate"}`, rr.Body.String())
}

func TestRegisterRequiresClientID(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("username=a&eaddress=b&password=c"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTokenBadCredentialsIsServerError(t *testing.T) {
	ts := newTestServer(t)
	ts.signUp(t, "alice")

	rr := ts.form(http.MethodPost, "/auth/token", map[string]string{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestTokenLifecycle(t *testing.T) {
	ts := newTestServer(t)
	header := ts.signUp(t, "alice")
	secret := strings.TrimPrefix(header, "bearer ")

	rr := ts.form(http.MethodPost, "/auth/token/introspect", map[string]string{"token": secret})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	var active response.IntrospectionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &active))
	assert.True(t, active.Response.Active)
	assert.Equal(t, "alice", active.Response.Username)
	assert.Equal(t, "bearer", active.Response.TokenType)
	assert.Equal(t, int64(3600), active.Response.ExpiresIn)

	rr = ts.form(http.MethodDelete, "/auth/token/revoke", map[string]string{"token": secret})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"revoked"}`, rr.Body.String())

	rr = ts.form(http.MethodPost, "/auth/token/introspect", map[string]string{"token": secret})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"response":{"active":false}}`, rr.Body.String())

	rr = ts.form(http.MethodDelete, "/auth/token/revoke", map[string]string{"token": secret})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, "/api/roster?visible=true", nil, header)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGameServiceRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/games/othello/?winner=", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, "/api/roster", nil, "bearer unknown")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRosterAndPresence(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signUp(t, "alice")
	ts.signUp(t, "bob")

	rr := ts.request(http.MethodPost, "/api/roster/presence", map[string]bool{"presence": true}, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"presence":true}`, rr.Body.String())

	rr = ts.request(http.MethodGet, "/api/roster?visible=true", nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	var roster []model.RosterEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &roster))
	require.Len(t, roster, 2)
	assert.Equal(t, "alice", roster[0].Username)
	assert.True(t, roster[0].Presence)
	assert.False(t, roster[1].Presence)
}

func TestPresenceRequiresFlag(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signUp(t, "alice")

	rr := ts.request(http.MethodPost, "/api/roster/presence", map[string]string{}, alice)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGameLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signUp(t, "alice")
	bob := ts.signUp(t, "bob")

	id := ts.createGame(t, alice, "bob", model.ColorBlack)

	// Active listing uses an empty winner filter
	rr := ts.request(http.MethodGet, "/api/games/othello/?winner=", nil, bob)
	require.Equal(t, http.StatusOK, rr.Code)
	var active []model.Game
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &active))
	require.Len(t, active, 1)
	assert.Equal(t, id, active[0].ID)

	// Completed listing uses the bracket operator
	rr = ts.request(http.MethodGet, "/api/games/othello/?winner[$gte]=%20", nil, bob)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	// Out of turn
	rr = ts.request(http.MethodPost, "/api/games/othello/"+string(id)+"/move/", model.Position{X: 2, Y: 3}, bob)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"othelloMoveError":"not this player's turn"}`, rr.Body.String())

	rr = ts.request(http.MethodPost, "/api/games/othello/"+string(id)+"/move/", model.Position{X: 2, Y: 3}, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	var g model.Game
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &g))
	assert.Equal(t, "bob", g.Next)
	assert.Equal(t, model.ColorBlack, g.Board[3][2])

	rr = ts.request(http.MethodGet, "/api/games/othello/"+string(id), nil, bob)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &g))
	assert.Len(t, g.Moves, 1)
}

func TestGameHiddenFromOutsiders(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signUp(t, "alice")
	ts.signUp(t, "bob")
	carol := ts.signUp(t, "carol")

	id := ts.createGame(t, alice, "bob", model.ColorBlack)

	rr := ts.request(http.MethodGet, "/api/games/othello/"+string(id), nil, carol)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodGet, "/api/games/othello/missing", nil, carol)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateGameRejectsUnknownOpponent(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signUp(t, "alice")

	rr := ts.request(http.MethodPost, "/api/games/othello/", model.GameParams{Opponent: "zed", UserColor: model.ColorBlack}, alice)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.request(http.MethodGet, "/api/roster", nil, "")

	rr := ts.request(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "bsi_stub_http_requests_total")
}
