package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/bsi-games/bsi/internal/presence"
	"github.com/bsi-games/bsi/internal/push"
)

// expiryCheckInterval is how often watch looks for an expired credential
const expiryCheckInterval = 15 * time.Second

func newWatchCmd() *cobra.Command {
	var metricsAddr string
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sign in and follow presence and game activity",
		Long: `Sign in, keep the push channel open and print every change to the
channel state, the set of online players, the opponents viewing a game, and
the game update counters.

Press Ctrl+C to sign out and exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			if metricsAddr != "" {
				srv := serveMetrics(metricsAddr, newLogger(cmd))
				defer func() { _ = srv.Shutdown(context.Background()) }()
			}

			events := make(chan WatchEvent, 64)
			unsubscribe := subscribeWatch(events)
			defer unsubscribe()

			out := output(cmd)
			return withSession(ctx, func(ctx context.Context) error {
				expiry := time.NewTicker(expiryCheckInterval)
				defer expiry.Stop()

				for {
					select {
					case e := <-events:
						out.Print(e)
					case <-expiry.C:
						renewed, err := client.RenewIfExpired(ctx, cfg.Username, cfg.Password)
						if err != nil {
							return err
						}
						if renewed {
							out.Print(WatchEvent{Time: time.Now(), Kind: "credential", State: "renewed"})
						}
					case <-ctx.Done():
						return nil
					}
				}
			})
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Exit after this long (0 waits for Ctrl+C)")

	return cmd
}

// subscribeWatch forwards core notifications to events without blocking
// the notifying goroutine
func subscribeWatch(events chan<- WatchEvent) func() {
	emit := func(e WatchEvent) {
		e.Time = time.Now()
		select {
		case events <- e:
		default:
		}
	}

	unsubs := []func(){
		client.Channel.OnStateChange(func(_, to push.State) {
			emit(WatchEvent{Kind: "state", State: to.String()})
		}),
		client.Tracker.OnChange(func(ch presence.Change) {
			switch ch.Kind {
			case presence.OnlineChanged:
				emit(WatchEvent{Kind: "online", Online: client.Tracker.OnlinePlayers()})
			case presence.ActiveGamesChanged:
				active := make(map[string]string)
				for opponent, id := range client.Tracker.ActiveGames() {
					active[opponent] = string(id)
				}
				emit(WatchEvent{Kind: "active", ActiveGames: active})
			}
		}),
		client.Counters.OnChange(func(s presence.Snapshot) {
			emit(WatchEvent{Kind: "counters", GameUpdated: s.GameUpdated, GameCreated: s.GameCreated})
		}),
	}

	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func serveMetrics(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
	return srv
}
