package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/competitive-sudoku-go/internal/api"
	"github.com/mcoot/competitive-sudoku-go/internal/config"
	"github.com/mcoot/competitive-sudoku-go/internal/factory"
	"github.com/mcoot/competitive-sudoku-go/internal/logging"
	"github.com/mcoot/competitive-sudoku-go/internal/presence"
	"github.com/mcoot/competitive-sudoku-go/internal/services/lobby"
	"github.com/mcoot/competitive-sudoku-go/internal/services/player"
	redisstorage "github.com/mcoot/competitive-sudoku-go/internal/storage/redis"
	"github.com/mcoot/competitive-sudoku-go/internal/transport/line"
	"github.com/mcoot/competitive-sudoku-go/internal/transport/rpcproxy"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type flags struct {
	configPath string
	name       string
	lineAddr   string
	rpcAddr    string
	httpAddr   string
	storage    string
	logLevel   string
	logFormat  string
	noPresence bool
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "sudokud",
		Short: "Competitive sudoku server",
		Long: `sudokud hosts shared Sudoku games. It serves the line protocol, the RPC
binding and the JSON API, and advertises itself on the local network.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			f.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.New(os.Stderr, cfg.Log, "sudokud")
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			if cfg.Source != "" {
				logger.Info("config loaded", slog.String("path", cfg.Source))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Config file (env: "+config.EnvPath+")")
	cmd.Flags().StringVar(&f.name, "name", "", "Server name advertised on the network")
	cmd.Flags().StringVar(&f.lineAddr, "line-addr", "", "Line protocol listen address")
	cmd.Flags().StringVar(&f.rpcAddr, "rpc-addr", "", "RPC listen address")
	cmd.Flags().StringVar(&f.httpAddr, "http-addr", "", "JSON API listen address")
	cmd.Flags().StringVar(&f.storage, "storage", "", "Results storage: memory, redis, sqlite")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format: json, text")
	cmd.Flags().BoolVar(&f.noPresence, "no-presence", false, "Do not advertise on the network")

	return cmd
}

// apply overrides file values with flags the user set
func (f flags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("name") {
		cfg.Server.Name = f.name
	}
	if changed("line-addr") {
		cfg.Line.Addr = f.lineAddr
	}
	if changed("rpc-addr") {
		cfg.RPC.Addr = f.rpcAddr
	}
	if changed("http-addr") {
		cfg.HTTP.Addr = f.httpAddr
	}
	if changed("storage") {
		cfg.Storage.Type = f.storage
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if f.noPresence {
		cfg.Presence.Enabled = false
	}
}

func factoryConfig(cfg config.Config, logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:        logger,
		StorageType:   cfg.Storage.Type,
		SqlitePath:    cfg.Storage.Sqlite.Path,
		PuzzlesPath:   cfg.Puzzles.Path,
		Player:        player.Config{RejectDuplicateNicknames: cfg.Lobby.RejectDuplicateNicknames},
		Lobby:         lobby.Config{MaxPlayersLimit: cfg.Lobby.MaxPlayersLimit},
		ScoringPolicy: cfg.Scoring.Policy,
		ScoringPoints: cfg.Scoring.Points,
	}
	if cfg.Storage.Type == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.Redis.URL
		redisCfg.ResultTTL = cfg.Storage.Redis.ResultTTL
		fc.RedisConfig = &redisCfg
	}
	return fc
}

// run serves every enabled binding until ctx ends or one of them fails
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	app, err := factory.New(factoryConfig(cfg, logger))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("closing results store", slog.String("error", err.Error()))
		}
	}()

	var broadcaster *presence.Broadcaster
	if cfg.Presence.Enabled {
		broadcaster, err = presence.NewBroadcaster(cfg.PresenceGroup(), cfg.AdvertiseAddress(), cfg.Server.Name, app.Games.OpenCount, logger)
		if err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	lineServer := line.NewServer(line.Config{Addr: cfg.Line.Addr, IOTimeout: cfg.Line.IOTimeout}, app.Dispatcher, logger)
	g.Go(func() error { return lineServer.ListenAndServe(ctx) })

	if cfg.RPC.Enabled {
		rpcServer := rpcproxy.NewServer(rpcproxy.Config{Addr: cfg.RPC.Addr}, app.Dispatcher, logger)
		g.Go(func() error { return rpcServer.ListenAndServe(ctx) })
	}

	if cfg.HTTP.Enabled {
		router := api.NewRouter(api.RouterConfig{
			Logger:  logger,
			Service: app.Dispatcher,
			Players: app.Players,
		})
		httpServer := api.NewServer(router, api.ServerConfig{
			Addr:            cfg.HTTP.Addr,
			ReadTimeout:     cfg.HTTP.ReadTimeout,
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		}, logger)
		g.Go(func() error { return httpServer.ListenAndServe(ctx) })
	}

	if broadcaster != nil {
		g.Go(func() error {
			// A presence failure is logged and does not stop the server.
			if err := broadcaster.Run(ctx); err != nil {
				logger.Warn("presence disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	logger.Info("server started",
		slog.String("name", cfg.Server.Name),
		slog.String("line_addr", cfg.Line.Addr),
	)

	err = g.Wait()
	logger.Info("server stopped")
	return err
}
