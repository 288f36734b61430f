package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	app "github.com/rocketscienceinc/tictactoe-escrow/internal"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

func Games(state *env) *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "Lists all games with their bet summary",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUseCases(cmd.Context(), state, func(ctx context.Context, useCases *app.UseCases) error {
				games, err := useCases.Games.ListGames(ctx)
				if err != nil {
					return err
				}

				return printGames(cmd.OutOrStdout(), games)
			})
		},
	}
}

func Balance(state *env) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <identity>",
		Short: "Shows the native and token balances of an identity",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return withUseCases(cmd.Context(), state, func(ctx context.Context, useCases *app.UseCases) error {
				balance, err := useCases.Escrow.GetBalance(ctx, entity.Identity(args[0]))
				if err != nil {
					return err
				}

				return printBalance(cmd.OutOrStdout(), balance)
			})
		},
	}
}

func withUseCases(ctx context.Context, state *env, fn func(ctx context.Context, useCases *app.UseCases) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	host, err := app.OpenStorage(ctx, state.conf)
	if err != nil {
		return err
	}
	defer host.Close()

	return fn(ctx, app.NewUseCases(state.logger, state.conf, host))
}

func printGames(out io.Writer, games []entity.GameSummary) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLAYER X\tPLAYER O\tSTATUS\tBET")

	for _, game := range games {
		playerO := "-"
		if game.PlayerO != nil {
			playerO = string(*game.PlayerO)
		}

		bet := "-"
		if game.HasBet {
			bet = game.BetAmount.String() + " " + game.BetTokenSymbol
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", game.ID, game.PlayerX, playerO, game.Status, bet)
	}

	return w.Flush()
}

func printBalance(out io.Writer, balance *entity.UserBalance) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ASSET\tAMOUNT")
	fmt.Fprintf(w, "native\t%s\n", balance.Native.String())

	for _, token := range balance.Tokens {
		fmt.Fprintf(w, "%s\t%s\n", token.TokenID, token.Amount.String())
	}

	return w.Flush()
}
