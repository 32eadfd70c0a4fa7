package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/competitive-sudoku-go/internal/presence"
)

func newDiscoverCmd(a *app) *cobra.Command {
	var wait time.Duration
	group := presence.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Listen for servers advertising on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := presence.Discover(cmd.Context(), group, wait, slog.New(slog.DiscardHandler))
			if err != nil {
				return err
			}
			a.output(cmd).Print(ServersFromModel(servers))
			return nil
		},
	}

	cmd.Flags().DurationVarP(&wait, "wait", "w", 3*time.Second, "How long to listen")
	cmd.Flags().StringVar(&group.Group, "group", group.Group, "Multicast group")
	cmd.Flags().IntVar(&group.Port, "port", group.Port, "Multicast port")
	return cmd
}

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestCtx(cmd)
			defer cancel()

			if err := a.game.ConnectCheck(ctx); err != nil {
				return err
			}
			a.output(cmd).PrintMessage(fmt.Sprintf("%s is up", a.game.Addr()))
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register <nickname>",
		Short: "Register a player and remember it in the session file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestCtx(cmd)
			defer cancel()

			id, err := a.game.Register(ctx, args[0])
			if err != nil {
				return err
			}

			session := Session{Server: a.game.Addr(), PlayerID: string(id), Nickname: args[0]}
			if err := a.cfg.SaveSession(session); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			a.output(cmd).Print(Registered{PlayerID: session.PlayerID, Nickname: session.Nickname, Server: session.Server})
			return nil
		},
	}
}

func newQuitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quit",
		Short: "Leave every game, unregister and forget the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.cfg.LoadSession()
			if err != nil {
				return err
			}
			player, err := a.cfg.Player(session)
			if err != nil {
				return err
			}

			ctx, cancel := a.requestCtx(cmd)
			defer cancel()
			if err := a.game.QuitServer(ctx, player); err != nil {
				return err
			}
			if err := a.cfg.ClearSession(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}

			a.output(cmd).PrintMessage("Goodbye")
			return nil
		},
	}
}
