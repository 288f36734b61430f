package cli

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	app "github.com/rocketscienceinc/tictactoe-escrow/internal"
)

func Serve(state *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serves the game and escrow API over HTTP",
		Long: heredoc.Doc(`
			Serves the JSON API until SIGINT or SIGTERM. Requests acting on behalf
			of a player name it in the X-Player-ID header.
		`),
		Args: cobra.NoArgs,

		RunE: func(_ *cobra.Command, _ []string) error {
			return app.RunApp(state.logger, state.conf)
		},
	}
}
