package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mcoot/competitive-sudoku-go/internal/dependencies/clock"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// Config holds registration policy
type Config struct {
	// RejectDuplicateNicknames refuses a nickname already held by a live
	// player. IDs are the real identity, so duplicates are allowed by default.
	RejectDuplicateNicknames bool
}

// Registry maps player ids to nicknames
type Registry struct {
	cfg    Config
	clock  clock.Clock
	newID  func() string
	logger *slog.Logger

	mu      sync.RWMutex
	players map[model.PlayerID]model.Player
}

// NewRegistry creates an empty Registry issuing uuid player ids
func NewRegistry(cfg Config, clk clock.Clock, logger *slog.Logger) *Registry {
	return &Registry{
		cfg:     cfg,
		clock:   clk,
		newID:   uuid.NewString,
		logger:  logger,
		players: make(map[model.PlayerID]model.Player),
	}
}

// ValidateNickname checks a nickname is 1-8 characters with no whitespace
func ValidateNickname(nickname string) error {
	n := utf8.RuneCountInString(nickname)
	if n == 0 || n > model.MaxNicknameLength || !utf8.ValidString(nickname) {
		return model.ErrInvalidNickname
	}
	for _, r := range nickname {
		if unicode.IsSpace(r) {
			return model.ErrInvalidNickname
		}
	}
	return nil
}

// Register validates nickname and issues a fresh player id
func (r *Registry) Register(ctx context.Context, nickname string) (model.Player, error) {
	if err := ValidateNickname(nickname); err != nil {
		return model.Player{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg.RejectDuplicateNicknames {
		for _, p := range r.players {
			if p.Nickname == nickname {
				return model.Player{}, fmt.Errorf("%w: %s", model.ErrNicknameTaken, nickname)
			}
		}
	}

	id := model.PlayerID(r.newID())
	for _, taken := r.players[id]; taken; _, taken = r.players[id] {
		id = model.PlayerID(r.newID())
	}

	p := model.Player{
		ID:           id,
		Nickname:     nickname,
		RegisteredAt: r.clock.Now(),
	}
	r.players[id] = p

	r.logger.Info("player registered",
		slog.String("player_id", string(id)),
		slog.String("nickname", nickname),
	)
	return p, nil
}

// Remove deletes a player. Unknown ids are ignored.
func (r *Registry) Remove(ctx context.Context, id model.PlayerID) {
	r.mu.Lock()
	_, ok := r.players[id]
	delete(r.players, id)
	r.mu.Unlock()

	if ok {
		r.logger.Info("player removed", slog.String("player_id", string(id)))
	}
}

// Lookup returns the nickname registered for id
func (r *Registry) Lookup(id model.PlayerID) (string, error) {
	p, err := r.Get(id)
	if err != nil {
		return "", err
	}
	return p.Nickname, nil
}

// Get returns the player registered under id
func (r *Registry) Get(id model.PlayerID) (model.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[id]
	if !ok {
		return model.Player{}, model.ErrPlayerNotFound
	}
	return p, nil
}

// Count returns the number of registered players
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// RegistryInterface defines the Registry contract for dependency injection
type RegistryInterface interface {
	Register(ctx context.Context, nickname string) (model.Player, error)
	Remove(ctx context.Context, id model.PlayerID)
	Lookup(id model.PlayerID) (string, error)
	Get(id model.PlayerID) (model.Player, error)
	Count() int
}

var _ RegistryInterface = (*Registry)(nil)
