package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/competitive-sudoku-go/internal/dependencies/clock"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/services/game"
	"github.com/mcoot/competitive-sudoku-go/internal/services/lobby"
	"github.com/mcoot/competitive-sudoku-go/internal/services/player"
	"github.com/mcoot/competitive-sudoku-go/internal/services/scoring"
	"github.com/mcoot/competitive-sudoku-go/internal/storage"
)

// Service is the set of actions every transport binding exposes
type Service interface {
	Register(ctx context.Context, nickname string) (model.Player, error)
	ListGames(ctx context.Context) ([]model.GameSummary, error)
	// CreateGame opens a room and seats its creator
	CreateGame(ctx context.Context, playerID model.PlayerID, maxPlayers int) (model.GameSnapshot, error)
	JoinGame(ctx context.Context, playerID model.PlayerID, gameID model.GameID) (model.GameSnapshot, error)
	MakeMove(ctx context.Context, playerID model.PlayerID, gameID model.GameID, x, y, value int) (model.GameSnapshot, error)
	FetchState(ctx context.Context, gameID model.GameID) (model.GameSnapshot, error)
	QuitGame(ctx context.Context, playerID model.PlayerID, gameID model.GameID) error
	// QuitServer leaves every game the player is seated in, then unregisters
	QuitServer(ctx context.Context, playerID model.PlayerID) error
}

// Stats is a point-in-time count of server activity
type Stats struct {
	Players   int
	Games     int
	OpenGames int
}

// Dispatcher routes actions to the registries and games
type Dispatcher struct {
	players player.RegistryInterface
	games   lobby.RegistryInterface
	scoring scoring.ServiceInterface
	results storage.ResultStore
	clock   clock.Clock
	logger  *slog.Logger

	mu    sync.Mutex
	seats map[model.PlayerID]map[model.GameID]struct{}
}

// New creates a Dispatcher
func New(
	players player.RegistryInterface,
	games lobby.RegistryInterface,
	scoringService scoring.ServiceInterface,
	results storage.ResultStore,
	clk clock.Clock,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		players: players,
		games:   games,
		scoring: scoringService,
		results: results,
		clock:   clk,
		logger:  logger,
		seats:   make(map[model.PlayerID]map[model.GameID]struct{}),
	}
}

var _ Service = (*Dispatcher)(nil)

func (d *Dispatcher) Register(ctx context.Context, nickname string) (model.Player, error) {
	return d.players.Register(ctx, nickname)
}

func (d *Dispatcher) ListGames(ctx context.Context) ([]model.GameSummary, error) {
	return d.games.List(), nil
}

func (d *Dispatcher) CreateGame(ctx context.Context, playerID model.PlayerID, maxPlayers int) (model.GameSnapshot, error) {
	if _, err := d.players.Get(playerID); err != nil {
		return model.GameSnapshot{}, err
	}

	g, err := d.games.Create(ctx, maxPlayers, playerID)
	if err != nil {
		return model.GameSnapshot{}, err
	}
	if err := d.confirmSeat(g, playerID); err != nil {
		return model.GameSnapshot{}, err
	}
	return g.State(d.players), nil
}

func (d *Dispatcher) JoinGame(ctx context.Context, playerID model.PlayerID, gameID model.GameID) (model.GameSnapshot, error) {
	if _, err := d.players.Get(playerID); err != nil {
		return model.GameSnapshot{}, err
	}

	g, err := d.games.Join(gameID, playerID)
	if err != nil {
		return model.GameSnapshot{}, fmt.Errorf("joining game %s: %w", gameID, err)
	}
	if err := d.confirmSeat(g, playerID); err != nil {
		return model.GameSnapshot{}, err
	}
	return g.State(d.players), nil
}

func (d *Dispatcher) MakeMove(ctx context.Context, playerID model.PlayerID, gameID model.GameID, x, y, value int) (model.GameSnapshot, error) {
	g, err := d.games.Get(gameID)
	if err != nil {
		return model.GameSnapshot{}, err
	}

	res, err := g.MakeMove(playerID, x, y, value)
	if err != nil {
		return model.GameSnapshot{}, err
	}

	snap := d.snapshotFromMove(g, res)
	if res.Completed {
		d.recordResult(ctx, snap)
	}
	return snap, nil
}

func (d *Dispatcher) FetchState(ctx context.Context, gameID model.GameID) (model.GameSnapshot, error) {
	g, err := d.games.Get(gameID)
	if err != nil {
		return model.GameSnapshot{}, err
	}
	return g.State(d.players), nil
}

func (d *Dispatcher) QuitGame(ctx context.Context, playerID model.PlayerID, gameID model.GameID) error {
	g, err := d.games.Get(gameID)
	if err != nil {
		return err
	}
	d.unseat(g, playerID)
	return nil
}

func (d *Dispatcher) QuitServer(ctx context.Context, playerID model.PlayerID) error {
	// Unregister before sweeping seats so a concurrent join either lands in
	// the sweep or sees the player gone in confirmSeat.
	d.players.Remove(ctx, playerID)

	d.mu.Lock()
	gameIDs := make([]model.GameID, 0, len(d.seats[playerID]))
	for id := range d.seats[playerID] {
		gameIDs = append(gameIDs, id)
	}
	d.mu.Unlock()

	for _, id := range gameIDs {
		if g, err := d.games.Get(id); err == nil {
			d.unseat(g, playerID)
		}
	}

	d.mu.Lock()
	delete(d.seats, playerID)
	d.mu.Unlock()
	return nil
}

// Watch streams a snapshot of the game now and after every change, until
// ctx ends, the game completes or the game is removed. Only seated players
// may watch.
func (d *Dispatcher) Watch(ctx context.Context, playerID model.PlayerID, gameID model.GameID) (<-chan model.GameSnapshot, error) {
	g, err := d.games.Get(gameID)
	if err != nil {
		return nil, err
	}
	if !g.Seated(playerID) {
		return nil, model.ErrNotSeated
	}

	out := make(chan model.GameSnapshot, 1)
	go func() {
		defer close(out)
		for {
			changed := g.Changed()
			snap := g.State(d.players)

			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
			if snap.State == model.GameStateComplete {
				return
			}

			select {
			case <-changed:
			case <-ctx.Done():
				return
			}
			if _, err := d.games.Get(gameID); err != nil {
				return
			}
		}
	}()
	return out, nil
}

// Results returns the most recent completed games
func (d *Dispatcher) Results(ctx context.Context, limit int) ([]*model.GameResult, error) {
	return d.results.ListResults(ctx, limit)
}

// Stats returns current player and game counts
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Players:   d.players.Count(),
		Games:     d.games.Count(),
		OpenGames: d.games.OpenCount(),
	}
}

func (d *Dispatcher) track(playerID model.PlayerID, gameID model.GameID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seats[playerID] == nil {
		d.seats[playerID] = make(map[model.GameID]struct{})
	}
	d.seats[playerID][gameID] = struct{}{}
}

// confirmSeat tracks a seat the player just took, and gives it back if the
// player quit the server in the meantime
func (d *Dispatcher) confirmSeat(g *game.Game, playerID model.PlayerID) error {
	d.track(playerID, g.ID())
	if _, err := d.players.Get(playerID); err != nil {
		d.unseat(g, playerID)
		return err
	}
	return nil
}

// unseat removes the player and deletes the room once nobody is left in it
func (d *Dispatcher) unseat(g *game.Game, playerID model.PlayerID) {
	remaining := g.RemovePlayer(playerID)

	d.mu.Lock()
	if games := d.seats[playerID]; games != nil {
		delete(games, g.ID())
		if len(games) == 0 {
			delete(d.seats, playerID)
		}
	}
	d.mu.Unlock()

	if remaining == 0 && d.games.RemoveIfEmpty(g.ID()) {
		d.logger.Debug("empty game closed", slog.String("game_id", string(g.ID())))
	}
}

func (d *Dispatcher) snapshotFromMove(g *game.Game, res game.MoveResult) model.GameSnapshot {
	seats := make([]model.SeatView, len(res.Scores))
	for i, sc := range res.Scores {
		nick, _ := d.players.Lookup(sc.PlayerID)
		seats[i] = model.SeatView{Nickname: nick, Score: sc.Score, PlayerID: sc.PlayerID}
	}
	return model.GameSnapshot{
		GameID:     g.ID(),
		MaxPlayers: g.MaxPlayers(),
		Board:      res.Board,
		Seats:      seats,
		State:      res.State,
	}
}

// recordResult stores a completed game. Failures are logged; the move that
// completed the game has already been applied.
func (d *Dispatcher) recordResult(ctx context.Context, snap model.GameSnapshot) {
	standings := d.scoring.Standings(snap.Seats)
	result := &model.GameResult{
		GameID:      snap.GameID,
		Winner:      d.scoring.DetermineWinner(standings),
		Standings:   standings,
		CompletedAt: d.clock.Now(),
	}

	if err := d.results.SaveResult(ctx, result); err != nil {
		d.logger.Error("failed to save game result",
			slog.String("game_id", string(snap.GameID)),
			slog.String("error", err.Error()),
		)
		return
	}
	d.logger.Info("game result recorded",
		slog.String("game_id", string(snap.GameID)),
		slog.String("winner", string(result.Winner)),
	)
}
