package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/config"
)

const defaultConfigPath = "./config.yml"

// env is what every command needs once flags are parsed.
type env struct {
	conf   *config.Config
	logger *slog.Logger
}

func Root() *cobra.Command {
	state := &env{}

	root := &cobra.Command{
		Use:   "tictactoe-escrow",
		Short: "Two-player tic-tac-toe with an escrow ledger for bets",
		Long: heredoc.Doc(`
			Runs and inspects the tic-tac-toe escrow service.

			Players deposit funds, open games with or without a bet, and claim
			rewards once a betting game ends. Configuration is read from the
			YAML file given by --config, with environment overrides.
		`),
		Args: cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			conf, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			state.conf = conf
			state.logger = initLogger(conf)

			return nil
		},
	}

	root.PersistentFlags().String("config", defaultConfigPath, "path to the YAML configuration file")

	root.AddCommand(Serve(state))
	root.AddCommand(Games(state))
	root.AddCommand(Balance(state))

	return root
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
