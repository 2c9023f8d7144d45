package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the game service answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSuffix(cfg.ServerURL, "/") + "/health"
			hc := &http.Client{Timeout: timeout}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, target, nil)
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}

			start := time.Now()
			resp, err := hc.Do(req)
			if err != nil {
				return fmt.Errorf("game service unreachable at %s: %w", cfg.ServerURL, err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("health check returned HTTP %d", resp.StatusCode)
			}

			result := HealthResult{Latency: time.Since(start).Round(time.Millisecond).String()}
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return fmt.Errorf("malformed health response: %w", err)
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Give up after this long")

	return cmd
}
