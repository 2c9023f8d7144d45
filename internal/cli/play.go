package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bsi-games/bsi/internal/model"
	"github.com/bsi-games/bsi/internal/presence"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <game-id>",
		Short: "Open a game and play it interactively",
		Long: `Open a game, announce the open view to the opponent and redraw the board
whenever the game changes.

Enter moves as "x y" (column, row). "r" redraws, "q" quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p := &player{
				id:      model.GameID(args[0]),
				out:     output(cmd),
				updates: make(chan struct{}, 1),
				viewing: make(chan struct{}, 1),
			}
			unsubscribe := p.subscribe()
			defer unsubscribe()

			lines := readLines(cmd.InOrStdin())
			return withSession(ctx, func(ctx context.Context) error {
				return p.run(ctx, lines)
			})
		},
	}
}

// player drives one interactive game view
type player struct {
	id       model.GameID
	opponent string
	out      *Output

	updates chan struct{}
	viewing chan struct{}
}

func (p *player) subscribe() func() {
	unsubCounters := client.Counters.OnChange(func(presence.Snapshot) { signalOnce(p.updates) })
	unsubTracker := client.Tracker.OnChange(func(ch presence.Change) {
		if ch.Kind == presence.ActiveGamesChanged {
			signalOnce(p.viewing)
		}
	})
	return func() {
		unsubCounters()
		unsubTracker()
	}
}

func (p *player) run(ctx context.Context, lines <-chan string) error {
	g, err := client.Gateway.FetchGame(ctx, p.id)
	if err != nil {
		return describeError(err)
	}
	if !g.HasPlayer(cfg.Username) {
		return fmt.Errorf("%s is not a player in game %s", cfg.Username, p.id)
	}
	p.opponent = g.Opponent(cfg.Username)

	if err := client.Session.OpenGame(p.id, p.opponent); err != nil {
		p.out.PrintError(err)
	}
	defer func() { _ = client.Session.CloseGame(p.id) }()

	p.show(g)
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-p.updates:
			if err := p.refresh(ctx); err != nil {
				p.out.PrintError(err)
			}

		case <-p.viewing:
			if id, ok := client.Tracker.ActiveGame(p.opponent); ok && id == p.id {
				p.out.PrintMessage(p.opponent + " is viewing this game")
			} else {
				p.out.PrintMessage(p.opponent + " is not viewing this game")
			}

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			done, err := p.handle(ctx, line)
			if err != nil {
				p.out.PrintError(err)
			}
			if done {
				return nil
			}
		}
	}
}

// handle applies one line of input; done reports a quit request
func (p *player) handle(ctx context.Context, line string) (done bool, err error) {
	fields := strings.Fields(line)
	switch {
	case len(fields) == 0:
		return false, nil
	case fields[0] == "q" || fields[0] == "quit":
		return true, nil
	case fields[0] == "r":
		return false, p.refresh(ctx)
	case len(fields) != 2:
		return false, fmt.Errorf(`enter a move as "x y"`)
	}

	pos, err := parsePosition(fields[0], fields[1])
	if err != nil {
		return false, err
	}
	g, err := client.Gateway.SubmitMove(ctx, p.id, pos)
	if err != nil {
		return false, describeError(err)
	}
	p.show(g)
	return g.IsComplete(), nil
}

func (p *player) refresh(ctx context.Context) error {
	g, fresh, err := fetchFresh(ctx, client.Session, client.Gateway.FetchGame, p.id)
	if err != nil {
		return describeError(err)
	}
	if fresh {
		p.show(g)
	}
	return nil
}

// epochGuard reports whether work started under a credential still applies
type epochGuard interface {
	Epoch() uint64
	Valid(epoch uint64) bool
}

// fetchFresh pulls a game and reports fresh=false when the credential
// changed while the request was in flight; such a result is discarded
func fetchFresh(ctx context.Context, guard epochGuard, fetch func(context.Context, model.GameID) (*model.Game, error), id model.GameID) (*model.Game, bool, error) {
	epoch := guard.Epoch()
	g, err := fetch(ctx, id)
	if !guard.Valid(epoch) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return g, true, nil
}

func (p *player) show(g *model.Game) {
	p.out.Print(g)
	if !g.IsComplete() && g.Next == cfg.Username {
		p.out.PrintMessage("Your move:")
	}
}

// signalOnce records a pending notification without blocking
func signalOnce(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// readLines streams input lines until EOF
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}
