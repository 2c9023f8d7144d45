package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bsi-games/bsi/internal/stub/api"
	"github.com/bsi-games/bsi/internal/stub/factory"
	redisstorage "github.com/bsi-games/bsi/internal/stub/storage/redis"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serverCfg := api.DefaultServerConfig()
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		serverCfg.Port = port
	}
	storageType := getEnvOrDefault("STORAGE_TYPE", factory.StorageTypeMemory)
	redisURL := getEnvOrDefault("REDIS_URL", redisstorage.DefaultConfig().URL)
	var debug bool

	cmd := &cobra.Command{
		Use:   "stubserver",
		Short: "Stand-in authorization server, game service and push hub for local play",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)

			cfg := factory.Config{Logger: logger, StorageType: storageType}
			if storageType == factory.StorageTypeRedis {
				redisCfg := redisstorage.DefaultConfig()
				redisCfg.URL = redisURL
				cfg.RedisConfig = &redisCfg
			}

			app, err := factory.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to create application: %w", err)
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Warn("close error", slog.String("error", err.Error()))
				}
			}()

			server := api.NewServer(app.Handler(), serverCfg, logger)
			server.OnShutdown(app.Hub.Close)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&serverCfg.Host, "host", serverCfg.Host, "Listen host")
	cmd.Flags().IntVar(&serverCfg.Port, "port", serverCfg.Port, "Listen port (env: PORT)")
	cmd.Flags().StringVar(&storageType, "storage", storageType, "Storage backend: memory, redis (env: STORAGE_TYPE)")
	cmd.Flags().StringVar(&redisURL, "redis-url", redisURL, "Redis URL for --storage redis (env: REDIS_URL)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Debug logging")

	return cmd
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
