package factory

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/competitive-sudoku-go/internal/dependencies/clock"
	"github.com/mcoot/competitive-sudoku-go/internal/dependencies/random"
	"github.com/mcoot/competitive-sudoku-go/internal/services/board"
	"github.com/mcoot/competitive-sudoku-go/internal/services/dispatch"
	"github.com/mcoot/competitive-sudoku-go/internal/services/lobby"
	"github.com/mcoot/competitive-sudoku-go/internal/services/player"
	"github.com/mcoot/competitive-sudoku-go/internal/services/scoring"
	"github.com/mcoot/competitive-sudoku-go/internal/storage"
	"github.com/mcoot/competitive-sudoku-go/internal/storage/memory"
	redisstorage "github.com/mcoot/competitive-sudoku-go/internal/storage/redis"
	sqlitestorage "github.com/mcoot/competitive-sudoku-go/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSqlite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Results ledger
	Results storage.ResultStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Boards     board.Provider
	Scoring    *scoring.Service
	Players    *player.Registry
	Games      *lobby.Registry
	Dispatcher *dispatch.Dispatcher
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the results backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SqlitePath is the database file (required if StorageType is "sqlite")
	SqlitePath string
	// PuzzlesPath is a YAML puzzle catalogue loaded over the built-in puzzles (optional)
	PuzzlesPath string
	// Player and Lobby hold registry policy; zero values are valid
	Player player.Config
	Lobby  lobby.Config
	// ScoringPolicy names the completion credit policy ("fixed" or "per_cell")
	// If empty, defaults to "fixed"
	ScoringPolicy string
	// ScoringPoints is the policy's award; zero means scoring.DefaultCompletionPoints
	ScoringPoints int
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	points := cfg.ScoringPoints
	if points == 0 {
		points = scoring.DefaultCompletionPoints
	}
	policy, err := scoring.FromName(cfg.ScoringPolicy, points)
	if err != nil {
		return nil, err
	}

	rnd := random.New()
	catalog := board.NewCatalog(rnd, logger)
	if cfg.PuzzlesPath != "" {
		if err := catalog.LoadFromFile(cfg.PuzzlesPath); err != nil {
			return nil, fmt.Errorf("loading puzzles: %w", err)
		}
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	return newWithDependencies(dependencies{
		results: store,
		clock:   clock.New(),
		random:  rnd,
		boards:  catalog,
		policy:  policy,
		player:  cfg.Player,
		lobby:   cfg.Lobby,
		logger:  logger,
	}), nil
}

func newStore(cfg Config) (storage.ResultStore, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeSqlite:
		if cfg.SqlitePath == "" {
			return nil, errors.New("SqlitePath required when StorageType is sqlite")
		}
		return sqlitestorage.New(cfg.SqlitePath)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}
}

type dependencies struct {
	results storage.ResultStore
	clock   clock.Clock
	random  random.Random
	boards  board.Provider
	policy  scoring.Policy
	player  player.Config
	lobby   lobby.Config
	logger  *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies) *App {
	scoringService := scoring.New(deps.policy)
	players := player.NewRegistry(deps.player, deps.clock, deps.logger)
	games := lobby.NewRegistry(deps.lobby, deps.boards, scoringService, deps.clock, deps.random, deps.logger)
	dispatcher := dispatch.New(players, games, scoringService, deps.results, deps.clock, deps.logger)

	return &App{
		Results:    deps.results,
		Clock:      deps.clock,
		Random:     deps.random,
		Boards:     deps.boards,
		Scoring:    scoringService,
		Players:    players,
		Games:      games,
		Dispatcher: dispatcher,
	}
}

// Close releases the results backend
func (a *App) Close() error {
	return a.Results.Close()
}
