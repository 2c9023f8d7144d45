package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bsi-games/bsi/internal/model"
)

func newRosterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "List visible players; * marks those present",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context) error {
				roster, err := client.Gateway.ListRoster(ctx)
				if err != nil {
					return describeError(err)
				}
				if roster == nil {
					roster = []model.RosterEntry{}
				}
				output(cmd).Print(roster)
				return nil
			})
		},
	}
}
