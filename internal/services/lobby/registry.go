package lobby

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/competitive-sudoku-go/internal/dependencies/clock"
	"github.com/mcoot/competitive-sudoku-go/internal/dependencies/random"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/services/board"
	"github.com/mcoot/competitive-sudoku-go/internal/services/game"
	"github.com/mcoot/competitive-sudoku-go/internal/services/scoring"
)

const (
	// GameIDLength is the length of generated room codes
	GameIDLength = 6
	// DefaultMaxPlayersLimit caps the seats a single room may ask for
	DefaultMaxPlayersLimit = 16
	// maxIDAttempts bounds retries when a generated code is already in use
	maxIDAttempts = 10
)

// Config holds room creation limits
type Config struct {
	MaxPlayersLimit int
}

// DefaultConfig returns the default room limits
func DefaultConfig() Config {
	return Config{MaxPlayersLimit: DefaultMaxPlayersLimit}
}

// Registry holds every live game room. Listing order is creation order.
type Registry struct {
	cfg    Config
	boards board.Provider
	policy scoring.Policy
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	mu    sync.RWMutex
	games map[model.GameID]*game.Game
	order []model.GameID
}

// NewRegistry creates an empty Registry
func NewRegistry(
	cfg Config,
	boards board.Provider,
	policy scoring.Policy,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *Registry {
	if cfg.MaxPlayersLimit <= 0 {
		cfg.MaxPlayersLimit = DefaultMaxPlayersLimit
	}
	return &Registry{
		cfg:    cfg,
		boards: boards,
		policy: policy,
		clock:  clk,
		random: rnd,
		logger: logger,
		games:  make(map[model.GameID]*game.Game),
	}
}

// Create builds a new room with a fresh board. Any players given are seated
// before the room becomes visible.
func (r *Registry) Create(ctx context.Context, maxPlayers int, seated ...model.PlayerID) (*game.Game, error) {
	if maxPlayers <= 0 || maxPlayers > r.cfg.MaxPlayersLimit {
		return nil, fmt.Errorf("%w: %d (limit %d)", model.ErrInvalidCapacity, maxPlayers, r.cfg.MaxPlayersLimit)
	}

	b, err := r.boards.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("provisioning board: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.freshID()
	if err != nil {
		return nil, err
	}

	g, err := game.New(id, maxPlayers, b, r.policy, r.clock.Now(), r.logger)
	if err != nil {
		return nil, err
	}
	for _, pid := range seated {
		if err := g.AddPlayer(pid); err != nil {
			return nil, err
		}
	}
	r.games[id] = g
	r.order = append(r.order, id)

	r.logger.Info("game created",
		slog.String("game_id", string(id)),
		slog.Int("max_players", maxPlayers),
	)
	return g, nil
}

// freshID must be called with the write lock held
func (r *Registry) freshID() (model.GameID, error) {
	for range maxIDAttempts {
		id := model.GameID(random.Code(r.random, GameIDLength))
		if _, taken := r.games[id]; !taken && id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate a game id after %d attempts", maxIDAttempts)
}

// Get returns the room with the given id
func (r *Registry) Get(id model.GameID) (*game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return g, nil
}

// List returns a summary of every room in creation order
func (r *Registry) List() []model.GameSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.GameSummary, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.games[id].Summary())
	}
	return out
}

// Join seats a player in a room. Joins hold the registry read lock so that
// RemoveIfEmpty never deletes a room someone is entering.
func (r *Registry) Join(id model.GameID, playerID model.PlayerID) (*game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	if err := g.AddPlayer(playerID); err != nil {
		return nil, err
	}
	return g, nil
}

// RemoveIfEmpty deletes a room that has no seated players and reports
// whether it did
func (r *Registry) RemoveIfEmpty(id model.GameID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[id]
	if !ok || g.Summary().SeatCount > 0 {
		return false
	}
	r.removeLocked(id)
	return true
}

// Remove deletes a room. Unknown ids are ignored.
func (r *Registry) Remove(id model.GameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.games[id]; !ok {
		return
	}
	r.removeLocked(id)
}

// removeLocked must be called with the write lock held
func (r *Registry) removeLocked(id model.GameID) {
	delete(r.games, id)
	for i, gid := range r.order {
		if gid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Info("game removed", slog.String("game_id", string(id)))
}

// Count returns the number of rooms
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// OpenCount returns the number of rooms that still have free seats
func (r *Registry) OpenCount() int {
	n := 0
	for _, summary := range r.List() {
		if summary.State.Joinable() {
			n++
		}
	}
	return n
}

// RegistryInterface defines the Registry contract for dependency injection
type RegistryInterface interface {
	Create(ctx context.Context, maxPlayers int, seated ...model.PlayerID) (*game.Game, error)
	Get(id model.GameID) (*game.Game, error)
	Join(id model.GameID, playerID model.PlayerID) (*game.Game, error)
	List() []model.GameSummary
	Remove(id model.GameID)
	RemoveIfEmpty(id model.GameID) bool
	Count() int
	OpenCount() int
}

var _ RegistryInterface = (*Registry)(nil)
