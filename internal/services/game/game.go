package game

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/services/scoring"
)

// Directory resolves player ids to nicknames for display
type Directory interface {
	Lookup(id model.PlayerID) (string, error)
}

// SeatScore is a seated player's running score
type SeatScore struct {
	PlayerID model.PlayerID
	Score    int
}

// MoveResult is the state of a game straight after a move
type MoveResult struct {
	Board     model.Board
	Scores    []SeatScore
	State     model.GameState
	Completed bool // this move solved the board
}

type seat struct {
	playerID model.PlayerID
	score    int
	moves    int
}

// Game is one Sudoku session. All methods are safe for concurrent use; each
// Game has its own lock.
type Game struct {
	id         model.GameID
	maxPlayers int
	policy     scoring.Policy
	logger     *slog.Logger
	createdAt  time.Time

	mu           sync.RWMutex
	board        model.Board
	emptyAtStart int
	seats        []seat
	state        model.GameState
	changed      chan struct{}
}

// New creates an empty OPEN game around board
func New(id model.GameID, maxPlayers int, board model.Board, policy scoring.Policy, createdAt time.Time, logger *slog.Logger) (*Game, error) {
	if maxPlayers <= 0 {
		return nil, fmt.Errorf("%w: %d", model.ErrInvalidCapacity, maxPlayers)
	}
	return &Game{
		id:           id,
		maxPlayers:   maxPlayers,
		policy:       policy,
		logger:       logger.With(slog.String("game_id", string(id))),
		createdAt:    createdAt,
		board:        board,
		emptyAtStart: board.EmptyCount(),
		state:        model.GameStateOpen,
		changed:      make(chan struct{}),
	}, nil
}

// ID returns the game's id
func (g *Game) ID() model.GameID {
	return g.id
}

// MaxPlayers returns the seat limit fixed at creation
func (g *Game) MaxPlayers() int {
	return g.maxPlayers
}

// CreatedAt returns when the game was created
func (g *Game) CreatedAt() time.Time {
	return g.createdAt
}

// AddPlayer seats a player with a score of zero. Seating an already seated
// player changes nothing.
func (g *Game) AddPlayer(id model.PlayerID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.seatIndex(id) >= 0 {
		return nil
	}
	if !g.state.Joinable() {
		return model.ErrGameFull
	}

	g.seats = append(g.seats, seat{playerID: id})
	g.reevaluate()
	g.notify()

	g.logger.Info("player seated",
		slog.String("player_id", string(id)),
		slog.Int("seats", len(g.seats)),
		slog.String("state", string(g.state)),
	)
	return nil
}

// RemovePlayer frees a player's seat and returns the number of seats still
// taken. Absent players are ignored.
func (g *Game) RemovePlayer(id model.PlayerID) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.seatIndex(id)
	if i < 0 {
		return len(g.seats)
	}

	g.seats = append(g.seats[:i], g.seats[i+1:]...)
	g.reevaluate()
	g.notify()

	g.logger.Info("player left",
		slog.String("player_id", string(id)),
		slog.Int("seats", len(g.seats)),
	)
	return len(g.seats)
}

// MakeMove writes value at (x, y) for a seated player. A value of 0 clears
// the cell. Solving the board completes the game and credits the mover.
func (g *Game) MakeMove(id model.PlayerID, x, y, value int) (MoveResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.seatIndex(id)
	if i < 0 {
		return MoveResult{}, model.ErrNotSeated
	}

	pos := model.Position{X: x, Y: y}
	if !pos.InBounds() || value < 0 || value > model.MaxCellValue {
		return MoveResult{}, fmt.Errorf("%w: (%d, %d) = %d", model.ErrOutOfRange, x, y, value)
	}
	if g.board.Locked(pos) {
		return MoveResult{}, model.ErrCellLocked
	}
	if g.state == model.GameStateComplete {
		return MoveResult{}, model.ErrGameComplete
	}

	g.board.Set(pos, value)
	g.seats[i].moves++

	completed := false
	if g.board.Solved() {
		completed = true
		g.state = model.GameStateComplete
		credit := g.policy.CompletionCredit(scoring.MoveContext{
			PlayerMoves:  g.seats[i].moves,
			EmptyAtStart: g.emptyAtStart,
			SeatCount:    len(g.seats),
		})
		g.seats[i].score += credit

		g.logger.Info("game complete",
			slog.String("player_id", string(id)),
			slog.Int("credit", credit),
		)
	} else {
		g.logger.Debug("move applied",
			slog.String("player_id", string(id)),
			slog.Int("x", x),
			slog.Int("y", y),
			slog.Int("value", value),
		)
	}
	g.notify()

	return MoveResult{
		Board:     g.board.Clone(),
		Scores:    g.scores(),
		State:     g.state,
		Completed: completed,
	}, nil
}

// State returns a consistent snapshot. Nicknames come from dir; players it
// cannot resolve show an empty nickname.
func (g *Game) State(dir Directory) model.GameSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seats := make([]model.SeatView, len(g.seats))
	for i, st := range g.seats {
		nick := ""
		if dir != nil {
			nick, _ = dir.Lookup(st.playerID)
		}
		seats[i] = model.SeatView{Nickname: nick, Score: st.score, PlayerID: st.playerID}
	}

	return model.GameSnapshot{
		GameID:     g.id,
		MaxPlayers: g.maxPlayers,
		Board:      g.board.Clone(),
		Seats:      seats,
		State:      g.state,
	}
}

// Summary returns the listing view of the game
func (g *Game) Summary() model.GameSummary {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return model.GameSummary{
		ID:         g.id,
		SeatCount:  len(g.seats),
		MaxPlayers: g.maxPlayers,
		State:      g.state,
	}
}

// Seated reports whether the player holds a seat
func (g *Game) Seated(id model.PlayerID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.seatIndex(id) >= 0
}

// Changed returns a channel that is closed at the next mutation. Callers
// fetch a fresh channel after each wake-up.
func (g *Game) Changed() <-chan struct{} {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.changed
}

// seatIndex must be called with the lock held
func (g *Game) seatIndex(id model.PlayerID) int {
	for i, st := range g.seats {
		if st.playerID == id {
			return i
		}
	}
	return -1
}

// reevaluate must be called with the write lock held
func (g *Game) reevaluate() {
	if g.state == model.GameStateComplete {
		return
	}
	if len(g.seats) >= g.maxPlayers {
		g.state = model.GameStateFull
	} else {
		g.state = model.GameStateOpen
	}
}

// notify must be called with the write lock held
func (g *Game) notify() {
	close(g.changed)
	g.changed = make(chan struct{})
}

func (g *Game) scores() []SeatScore {
	out := make([]SeatScore, len(g.seats))
	for i, st := range g.seats {
		out[i] = SeatScore{PlayerID: st.playerID, Score: st.score}
	}
	return out
}
