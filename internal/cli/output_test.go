package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsi-games/bsi/internal/gateway"
	"github.com/bsi-games/bsi/internal/model"
)

func newTestGame() *model.Game {
	return &model.Game{
		ID:      "g1",
		Players: [2]string{"alice", "bob"},
		Colors:  [2]model.Color{model.ColorBlack, model.ColorWhite},
		Board:   model.NewBoard(),
		Next:    "alice",
	}
}

func TestPrintGameText(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("text", &buf, &buf).Print(newTestGame())

	out := buf.String()
	assert.Contains(t, out, "Game: g1")
	assert.Contains(t, out, "Players: alice (B) vs bob (W)")
	assert.Contains(t, out, "Next: alice")
	assert.Contains(t, out, "   0 1 2 3 4 5 6 7\n")
	assert.Contains(t, out, "3  . . . W B . . .\n")
	assert.Contains(t, out, "4  . . . B W . . .\n")
}

func TestPrintGameTextWinner(t *testing.T) {
	g := newTestGame()
	g.Winner = model.WinnerTie

	var buf bytes.Buffer
	NewOutput("text", &buf, &buf).Print(g)
	assert.Contains(t, buf.String(), "Result: tie")
	assert.NotContains(t, buf.String(), "Next:")
}

func TestPrintGameJSON(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("json", &buf, &buf).Print(newTestGame())

	var decoded model.Game
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, model.GameID("g1"), decoded.ID)
	assert.Equal(t, "alice", decoded.Next)
}

func TestPrintRosterMarksPresence(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("text", &buf, &buf).Print([]model.RosterEntry{
		{Username: "alice", Presence: true},
		{Username: "bob"},
	})
	assert.Equal(t, "* alice\n  bob\n", buf.String())
}

func TestPrintEmptyLists(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput("text", &buf, &buf)
	out.Print([]model.Game{})
	out.Print([]model.RosterEntry{})
	assert.Equal(t, "No games\nNo players\n", buf.String())
}

func TestPrintWatchEvent(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 30, 5, 0, time.UTC)

	var buf bytes.Buffer
	out := NewOutput("text", &buf, &buf)
	out.Print(WatchEvent{Time: at, Kind: "state", State: "authorized"})
	out.Print(WatchEvent{Time: at, Kind: "online", Online: []string{"alice", "bob"}})
	out.Print(WatchEvent{Time: at, Kind: "counters", GameUpdated: 2, GameCreated: 1})
	out.Print(WatchEvent{Time: at, Kind: "credential", State: "renewed"})

	assert.Equal(t,
		"[12:30:05] channel authorized\n"+
			"[12:30:05] online: alice, bob\n"+
			"[12:30:05] game updates: 2, new games: 1\n"+
			"[12:30:05] credential renewed\n",
		buf.String())
}

func TestPrintErrorJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	NewOutput("json", &stdout, &stderr).PrintError(errors.New("boom"))

	assert.Empty(t, stdout.String())
	assert.JSONEq(t, `{"error":{"message":"boom"}}`, stderr.String())
}

func TestDescribeErrorUsesServiceReason(t *testing.T) {
	f := &gateway.Failure{
		Kind:   gateway.KindRejected,
		Op:     "submitMove",
		Status: http.StatusBadRequest,
		Reason: []byte(`{"othelloMoveError":"cell is already occupied"}`),
	}

	err := describeError(f)
	assert.EqualError(t, err, "submitMove: cell is already occupied")

	plain := errors.New("plain")
	assert.Equal(t, plain, describeError(plain))
}

func TestParsePosition(t *testing.T) {
	pos, err := parsePosition("2", "3")
	require.NoError(t, err)
	assert.Equal(t, model.Position{X: 2, Y: 3}, pos)

	_, err = parsePosition("8", "0")
	assert.Error(t, err)

	_, err = parsePosition("a", "0")
	assert.Error(t, err)
}
