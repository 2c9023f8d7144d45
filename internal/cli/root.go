package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "bsi",
		Short: "Othello client for the bsi game service",
		Long: `bsi signs in to the authorization server, talks to the game service and
keeps a push connection open to follow presence and game activity.

Credentials come from flags or the BSI_USERNAME/BSI_PASSWORD environment
variables and are never stored. Each command signs in, does its work and
signs out again.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg, newLogger(cmd))
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Game service URL (env: BSI_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.WSServerURL, "ws-server", cfg.WSServerURL, "Push channel URL (env: BSI_WS_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.AuthServerURL, "auth-server", cfg.AuthServerURL, "Authorization server URL (env: BSI_AUTH_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Username, "username", "u", cfg.Username, "Username (env: BSI_USERNAME)")
	rootCmd.PersistentFlags().StringVar(&cfg.Password, "password", cfg.Password, "Password (env: BSI_PASSWORD)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose logging to stderr")

	// Add subcommands
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newIntrospectCmd())
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newRosterCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// Run executes one command line and tears the client down afterwards,
// whether or not the command succeeded
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	defer func() {
		if client != nil {
			client.Close()
			client = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func output(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())
}
