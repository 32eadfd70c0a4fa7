package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/competitive-sudoku-go/internal/transport/line"
)

// app is the state shared by every command of one invocation
type app struct {
	cfg  *Config
	game *line.Client
	api  *APIClient
}

func (a *app) output(cmd *cobra.Command) *Output {
	return NewOutput(a.cfg.Output, cmd.OutOrStdout())
}

func (a *app) requestCtx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.cfg.Timeout)
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{cfg: DefaultConfig()}

	rootCmd := &cobra.Command{
		Use:   "sudoku",
		Short: "Client for competitive sudoku servers",
		Long: `sudoku finds servers on the local network, registers a player, and
creates, joins and plays shared Sudoku games.

Game play goes over the line protocol. Results, health and the live watch
stream use the server's JSON API.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.game = line.NewClient(a.cfg.Server, line.WithTimeouts(0, a.cfg.Timeout))
			a.api = NewAPIClient(a.cfg.APIURL, a.cfg.Timeout)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&a.cfg.Server, "server", "s", a.cfg.Server, "Line protocol address (env: SUDOKU_SERVER)")
	rootCmd.PersistentFlags().StringVar(&a.cfg.APIURL, "api", a.cfg.APIURL, "JSON API base URL (env: SUDOKU_API)")
	rootCmd.PersistentFlags().StringVar(&a.cfg.PlayerID, "player", a.cfg.PlayerID, "Player id, overriding the session (env: SUDOKU_PLAYER)")
	rootCmd.PersistentFlags().StringVar(&a.cfg.SessionFile, "session-file", a.cfg.SessionFile, "Session file path (env: SUDOKU_SESSION_FILE)")
	rootCmd.PersistentFlags().StringVarP(&a.cfg.Output, "output", "o", a.cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&a.cfg.Timeout, "timeout", a.cfg.Timeout, "Per-request timeout")

	rootCmd.AddCommand(newDiscoverCmd(a))
	rootCmd.AddCommand(newPingCmd(a))
	rootCmd.AddCommand(newRegisterCmd(a))
	rootCmd.AddCommand(newQuitCmd(a))
	rootCmd.AddCommand(newGamesCmd(a))
	rootCmd.AddCommand(newMoveCmd(a))
	rootCmd.AddCommand(newStateCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newResultsCmd(a))
	rootCmd.AddCommand(newHealthCmd(a))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
