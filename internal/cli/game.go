package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bsi-games/bsi/internal/model"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameListCmd())
	cmd.AddCommand(newGameShowCmd())
	cmd.AddCommand(newGameNewCmd())
	cmd.AddCommand(newGameMoveCmd())

	return cmd
}

func newGameListCmd() *cobra.Command {
	var completed bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your active games, or finished ones with --completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context) error {
				list := client.Gateway.ListActiveGames
				if completed {
					list = client.Gateway.ListCompletedGames
				}
				games, err := list(ctx)
				if err != nil {
					return describeError(err)
				}
				if games == nil {
					games = []model.Game{}
				}
				output(cmd).Print(games)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "List finished games")

	return cmd
}

func newGameShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <game-id>",
		Short: "Show a game and its board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context) error {
				g, err := client.Gateway.FetchGame(ctx, model.GameID(args[0]))
				if err != nil {
					return describeError(err)
				}
				output(cmd).Print(g)
				return nil
			})
		},
	}
}

func newGameNewCmd() *cobra.Command {
	var opponent, color string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a game against another player",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := model.GameParams{
				Opponent:  opponent,
				UserColor: model.Color(strings.ToUpper(color)),
			}
			if params.UserColor != model.ColorBlack && params.UserColor != model.ColorWhite {
				return fmt.Errorf("--color must be B or W")
			}

			return withSession(cmd.Context(), func(ctx context.Context) error {
				created, err := client.Gateway.CreateGame(ctx, params)
				if err != nil {
					return describeError(err)
				}
				output(cmd).Print(created)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opponent, "opponent", "", "Opponent username (required)")
	cmd.Flags().StringVar(&color, "color", "B", "Your color: B (moves first) or W")
	_ = cmd.MarkFlagRequired("opponent")

	return cmd
}

func newGameMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <game-id> <x> <y>",
		Short: "Place a disc at column x, row y (0-7)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[1], args[2])
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), func(ctx context.Context) error {
				g, err := client.Gateway.SubmitMove(ctx, model.GameID(args[0]), pos)
				if err != nil {
					return describeError(err)
				}
				output(cmd).Print(g)
				return nil
			})
		},
	}
}

func parsePosition(xs, ys string) (model.Position, error) {
	x, err := strconv.Atoi(xs)
	if err != nil {
		return model.Position{}, fmt.Errorf("invalid x: %s", xs)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return model.Position{}, fmt.Errorf("invalid y: %s", ys)
	}
	pos := model.Position{X: x, Y: y}
	if !pos.InBounds() {
		return model.Position{}, fmt.Errorf("position (%d, %d) is off the board", x, y)
	}
	return pos, nil
}
