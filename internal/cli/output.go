package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bsi-games/bsi/internal/authclient"
	"github.com/bsi-games/bsi/internal/gateway"
	"github.com/bsi-games/bsi/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(o.errW, string(data))
	} else {
		fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// printJSON writes one compact JSON document per line so streams stay parseable
func (o *Output) printJSON(data any) {
	_ = json.NewEncoder(o.w).Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case *model.Game:
		o.printGame(v)
	case []model.Game:
		o.printGames(v)
	case []model.RosterEntry:
		o.printRoster(v)
	case *gateway.CreatedGame:
		fmt.Fprintf(o.w, "Created game %s\n", v.ID)
	case *authclient.Introspection:
		o.printIntrospection(v)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s (%s)\n", v.Status, v.Latency)
	case WatchEvent:
		o.printWatchEvent(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult is the game service health answer and how long it took
type HealthResult struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

// WatchEvent is one line of `bsi watch` output
type WatchEvent struct {
	Time        time.Time         `json:"time"`
	Kind        string            `json:"kind"`
	State       string            `json:"state,omitempty"`
	Online      []string          `json:"online,omitempty"`
	ActiveGames map[string]string `json:"active_games,omitempty"`
	GameUpdated uint64            `json:"game_updated,omitempty"`
	GameCreated uint64            `json:"game_created,omitempty"`
}

func (o *Output) printWatchEvent(e WatchEvent) {
	ts := e.Time.Format("15:04:05")
	switch e.Kind {
	case "state":
		fmt.Fprintf(o.w, "[%s] channel %s\n", ts, e.State)
	case "online":
		fmt.Fprintf(o.w, "[%s] online: %s\n", ts, strings.Join(e.Online, ", "))
	case "active":
		pairs := make([]string, 0, len(e.ActiveGames))
		for opponent, id := range e.ActiveGames {
			pairs = append(pairs, opponent+"@"+id)
		}
		fmt.Fprintf(o.w, "[%s] viewing: %s\n", ts, strings.Join(pairs, ", "))
	case "credential":
		fmt.Fprintf(o.w, "[%s] credential %s\n", ts, e.State)
	case "counters":
		fmt.Fprintf(o.w, "[%s] game updates: %d, new games: %d\n", ts, e.GameUpdated, e.GameCreated)
	default:
		o.printJSON(e)
	}
}

func (o *Output) printGame(g *model.Game) {
	fmt.Fprintf(o.w, "Game: %s\n", g.ID)
	fmt.Fprintf(o.w, "Players: %s (%s) vs %s (%s)\n", g.Players[0], g.Colors[0], g.Players[1], g.Colors[1])
	switch {
	case g.Winner == model.WinnerTie:
		fmt.Fprintln(o.w, "Result: tie")
	case g.Winner != "":
		fmt.Fprintf(o.w, "Winner: %s\n", g.Winner)
	default:
		fmt.Fprintf(o.w, "Next: %s\n", g.Next)
	}
	o.printBoard(g.Board)
}

func (o *Output) printBoard(board [][]model.Color) {
	var b strings.Builder
	b.WriteString("  ")
	for x := 0; x < model.BoardSize; x++ {
		fmt.Fprintf(&b, " %d", x)
	}
	b.WriteString("\n")
	for y, row := range board {
		fmt.Fprintf(&b, "%d ", y)
		for _, cell := range row {
			b.WriteString(" ")
			b.WriteString(cellGlyph(cell))
		}
		b.WriteString("\n")
	}
	fmt.Fprint(o.w, b.String())
}

func cellGlyph(c model.Color) string {
	switch c {
	case model.ColorBlack:
		return "B"
	case model.ColorWhite:
		return "W"
	default:
		return "."
	}
}

func (o *Output) printGames(games []model.Game) {
	if len(games) == 0 {
		fmt.Fprintln(o.w, "No games")
		return
	}
	for _, g := range games {
		status := "next: " + g.Next
		if g.Winner != "" {
			status = "winner: " + g.Winner
		}
		fmt.Fprintf(o.w, "%s  %s vs %s  %s\n", g.ID, g.Players[0], g.Players[1], status)
	}
}

func (o *Output) printRoster(entries []model.RosterEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(o.w, "No players")
		return
	}
	for _, e := range entries {
		mark := " "
		if e.Presence {
			mark = "*"
		}
		fmt.Fprintf(o.w, "%s %s\n", mark, e.Username)
	}
}

func (o *Output) printIntrospection(i *authclient.Introspection) {
	if !i.Active {
		fmt.Fprintln(o.w, "Token: inactive")
		return
	}
	fmt.Fprintln(o.w, "Token: active")
	fmt.Fprintf(o.w, "Username: %s\n", i.Username)
	fmt.Fprintf(o.w, "Type: %s\n", i.TokenType)
	fmt.Fprintf(o.w, "Expires in: %s\n", time.Duration(i.ExpiresIn)*time.Second)
}

// describeError renders gateway failures with the service's own reason
func describeError(err error) error {
	var f *gateway.Failure
	if errors.As(err, &f) {
		if msg := f.Message(); msg != "" {
			return fmt.Errorf("%s: %s", f.Op, msg)
		}
	}
	return err
}
