package cli

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/competitive-sudoku-go/internal/api/response"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

func newGamesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List, create, join and leave games",
	}

	cmd.AddCommand(newGamesListCmd(a))
	cmd.AddCommand(newGamesCreateCmd(a))
	cmd.AddCommand(newGamesJoinCmd(a))
	cmd.AddCommand(newGamesLeaveCmd(a))

	return cmd
}

func newGamesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List games on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestCtx(cmd)
			defer cancel()

			games, err := a.game.ListGames(ctx)
			if err != nil {
				return err
			}
			a.output(cmd).Print(response.GameSummariesFromModel(games))
			return nil
		},
	}
}

func newGamesCreateCmd(a *app) *cobra.Command {
	var maxPlayers int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a game and take the first seat",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, player, err := a.identify()
			if err != nil {
				return err
			}

			ctx, cancel := a.requestCtx(cmd)
			defer cancel()
			snap, err := a.game.CreateGame(ctx, player, maxPlayers)
			if err != nil {
				return err
			}

			return a.enter(cmd, session, snap)
		},
	}

	cmd.Flags().IntVarP(&maxPlayers, "max-players", "m", 2, "Seats in the game")
	return cmd
}

func newGamesJoinCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "join <game-id>",
		Short: "Take a seat in an open game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, player, err := a.identify()
			if err != nil {
				return err
			}

			ctx, cancel := a.requestCtx(cmd)
			defer cancel()
			snap, err := a.game.JoinGame(ctx, player, model.GameID(args[0]))
			if err != nil {
				return err
			}

			return a.enter(cmd, session, snap)
		},
	}
}

func newGamesLeaveCmd(a *app) *cobra.Command {
	var gameID string

	cmd := &cobra.Command{
		Use:   "leave",
		Short: "Give up your seat in a game",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, player, err := a.identify()
			if err != nil {
				return err
			}
			id, err := a.cfg.Game(session, gameID)
			if err != nil {
				return err
			}

			ctx, cancel := a.requestCtx(cmd)
			defer cancel()
			if err := a.game.QuitGame(ctx, player, id); err != nil {
				return err
			}

			if session.GameID == string(id) {
				session.GameID = ""
				if err := a.cfg.SaveSession(session); err != nil {
					return fmt.Errorf("failed to save session: %w", err)
				}
			}
			a.output(cmd).PrintMessage(fmt.Sprintf("Left %s", id))
			return nil
		},
	}

	cmd.Flags().StringVarP(&gameID, "game", "g", "", "Game id (default: current game)")
	return cmd
}

func newMoveCmd(a *app) *cobra.Command {
	var gameID string

	cmd := &cobra.Command{
		Use:   "move <row> <col> <value>",
		Short: "Write a digit into a cell; value 0 clears it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			coords := make([]int, len(args))
			for i, arg := range args {
				n, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid number %q", arg)
				}
				coords[i] = n
			}

			session, player, err := a.identify()
			if err != nil {
				return err
			}
			id, err := a.cfg.Game(session, gameID)
			if err != nil {
				return err
			}

			ctx, cancel := a.requestCtx(cmd)
			defer cancel()
			snap, err := a.game.MakeMove(ctx, player, id, coords[0], coords[1], coords[2])
			if err != nil {
				return err
			}

			a.output(cmd).Print(response.GameSnapshotFromModel(snap))
			return nil
		},
	}

	cmd.Flags().StringVarP(&gameID, "game", "g", "", "Game id (default: current game)")
	return cmd
}

func newStateCmd(a *app) *cobra.Command {
	var gameID string

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the board, seats and scores of a game",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.cfg.LoadSession()
			if err != nil {
				return err
			}
			id, err := a.cfg.Game(session, gameID)
			if err != nil {
				return err
			}

			ctx, cancel := a.requestCtx(cmd)
			defer cancel()
			snap, err := a.game.FetchState(ctx, id)
			if err != nil {
				return err
			}

			a.output(cmd).Print(response.GameSnapshotFromModel(snap))
			return nil
		},
	}

	cmd.Flags().StringVarP(&gameID, "game", "g", "", "Game id (default: current game)")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var gameID string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the game every time it changes, until it completes",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, player, err := a.identify()
			if err != nil {
				return err
			}
			id, err := a.cfg.Game(session, gameID)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := a.output(cmd)
			a.api.SetPlayer(player)
			return a.api.Watch(ctx, id, func(snap response.GameSnapshot) error {
				out.Print(snap)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&gameID, "game", "g", "", "Game id (default: current game)")
	return cmd
}

// identify loads the session and resolves the acting player
func (a *app) identify() (Session, model.PlayerID, error) {
	session, err := a.cfg.LoadSession()
	if err != nil {
		return session, "", err
	}
	player, err := a.cfg.Player(session)
	return session, player, err
}

// enter remembers snap's game as the current one and prints it
func (a *app) enter(cmd *cobra.Command, session Session, snap model.GameSnapshot) error {
	session.GameID = string(snap.GameID)
	if err := a.cfg.SaveSession(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	a.output(cmd).Print(response.GameSnapshotFromModel(snap))
	return nil
}
