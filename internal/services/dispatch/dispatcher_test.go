package dispatch

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/competitive-sudoku-go/internal/dependencies/mocks"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/services/board"
	"github.com/mcoot/competitive-sudoku-go/internal/services/lobby"
	"github.com/mcoot/competitive-sudoku-go/internal/services/player"
	"github.com/mcoot/competitive-sudoku-go/internal/services/scoring"
	"github.com/mcoot/competitive-sudoku-go/internal/storage"
	"github.com/mcoot/competitive-sudoku-go/internal/storage/memory"
	"github.com/mcoot/competitive-sudoku-go/internal/testutil"
)

var (
	blankA = model.Position{X: 0, Y: 0}
	blankB = model.Position{X: 8, Y: 8}
)

type brokenStore struct {
	storage.ResultStore
}

func (brokenStore) SaveResult(context.Context, *model.GameResult) error {
	return errors.New("disk on fire")
}

// quittingRegistry runs onGet once, right after the first successful Get
type quittingRegistry struct {
	player.RegistryInterface
	onGet func()
}

func (r *quittingRegistry) Get(id model.PlayerID) (model.Player, error) {
	p, err := r.RegistryInterface.Get(id)
	if hook := r.onGet; hook != nil && err == nil {
		r.onGet = nil
		hook()
	}
	return p, err
}

type DispatcherSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	results *memory.Storage
	d       *Dispatcher
	ctx     context.Context
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.results = memory.New()
	s.ctx = context.Background()
	s.d = s.newDispatcher(s.results)
}

func (s *DispatcherSuite) newDispatcher(results storage.ResultStore) *Dispatcher {
	logger := testutil.NopLogger()
	scorer := scoring.New(nil)
	boards := board.Static{Board: model.BoardFromGrid(testutil.PuzzleGrid(blankA, blankB))}
	players := player.NewRegistry(player.Config{}, s.clock, logger)
	games := lobby.NewRegistry(lobby.DefaultConfig(), boards, scorer, s.clock, s.random, logger)
	return New(players, games, scorer, results, s.clock, logger)
}

func (s *DispatcherSuite) register(nickname string) model.PlayerID {
	p, err := s.d.Register(s.ctx, nickname)
	s.Require().NoError(err)
	return p.ID
}

func (s *DispatcherSuite) TestCreateAndJoin() {
	alice := s.register("alice")
	bob := s.register("bob")
	s.random.QueueString("ROOM01")

	snap, err := s.d.CreateGame(s.ctx, alice, 2)
	s.Require().NoError(err)
	s.Equal(model.GameID("ROOM01"), snap.GameID)
	s.Equal(model.GameStateOpen, snap.State)
	s.Require().Len(snap.Seats, 1)
	s.Equal("alice", snap.Seats[0].Nickname)

	snap, err = s.d.JoinGame(s.ctx, bob, "ROOM01")
	s.Require().NoError(err)
	s.Equal(model.GameStateFull, snap.State)
	s.Len(snap.Seats, 2)

	games, err := s.d.ListGames(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.GameSummary{
		{ID: "ROOM01", SeatCount: 2, MaxPlayers: 2, State: model.GameStateFull},
	}, games)
}

func (s *DispatcherSuite) TestJoinFullGame() {
	alice := s.register("alice")
	bob := s.register("bob")
	snap, err := s.d.CreateGame(s.ctx, alice, 1)
	s.Require().NoError(err)
	s.Equal(model.GameStateFull, snap.State)

	_, err = s.d.JoinGame(s.ctx, bob, snap.GameID)
	s.ErrorIs(err, model.ErrGameFull)
}

func (s *DispatcherSuite) TestUnknownPlayerOrGame() {
	_, err := s.d.CreateGame(s.ctx, "ghost", 2)
	s.ErrorIs(err, model.ErrPlayerNotFound)
	s.Equal(0, s.d.Stats().Games)

	alice := s.register("alice")
	_, err = s.d.JoinGame(s.ctx, alice, "NOPE")
	s.ErrorIs(err, model.ErrGameNotFound)
	_, err = s.d.MakeMove(s.ctx, alice, "NOPE", 0, 0, 1)
	s.ErrorIs(err, model.ErrGameNotFound)
	_, err = s.d.FetchState(s.ctx, "NOPE")
	s.ErrorIs(err, model.ErrGameNotFound)
	s.ErrorIs(s.d.QuitGame(s.ctx, alice, "NOPE"), model.ErrGameNotFound)
}

func (s *DispatcherSuite) TestInvalidCapacity() {
	alice := s.register("alice")
	_, err := s.d.CreateGame(s.ctx, alice, 0)
	s.ErrorIs(err, model.ErrInvalidCapacity)
}

func (s *DispatcherSuite) TestMakeMove() {
	alice := s.register("alice")
	bob := s.register("bob")
	snap, err := s.d.CreateGame(s.ctx, alice, 2)
	s.Require().NoError(err)

	snap, err = s.d.MakeMove(s.ctx, alice, snap.GameID, 0, 0, 5)
	s.Require().NoError(err)
	s.Equal(5, snap.Board.Get(blankA))
	s.Equal(model.GameStateOpen, snap.State)

	_, err = s.d.MakeMove(s.ctx, bob, snap.GameID, 8, 8, 9)
	s.ErrorIs(err, model.ErrNotSeated)
	_, err = s.d.MakeMove(s.ctx, alice, snap.GameID, 0, 1, 3)
	s.ErrorIs(err, model.ErrCellLocked)
	_, err = s.d.MakeMove(s.ctx, alice, snap.GameID, 9, 0, 3)
	s.ErrorIs(err, model.ErrOutOfRange)

	fetched, err := s.d.FetchState(s.ctx, snap.GameID)
	s.Require().NoError(err)
	s.Equal(snap.Board, fetched.Board)
}

func (s *DispatcherSuite) TestCompletionRecordsResult() {
	alice := s.register("alice")
	bob := s.register("bob")
	snap, err := s.d.CreateGame(s.ctx, alice, 2)
	s.Require().NoError(err)
	_, err = s.d.JoinGame(s.ctx, bob, snap.GameID)
	s.Require().NoError(err)

	_, err = s.d.MakeMove(s.ctx, alice, snap.GameID, blankA.X, blankA.Y, testutil.SolvedValue(blankA))
	s.Require().NoError(err)
	s.clock.Advance(time.Minute)
	snap, err = s.d.MakeMove(s.ctx, bob, snap.GameID, blankB.X, blankB.Y, testutil.SolvedValue(blankB))
	s.Require().NoError(err)

	s.Equal(model.GameStateComplete, snap.State)
	s.Equal(0, snap.Seats[0].Score)
	s.Equal(scoring.DefaultCompletionPoints, snap.Seats[1].Score)

	result, err := s.results.GetResult(s.ctx, snap.GameID)
	s.Require().NoError(err)
	s.Equal(bob, result.Winner)
	s.Equal(s.clock.Now(), result.CompletedAt)
	s.Require().Len(result.Standings, 2)
	s.Equal("bob", result.Standings[0].Nickname)
	s.Equal(1, result.Standings[0].Rank)

	_, err = s.d.MakeMove(s.ctx, alice, snap.GameID, blankA.X, blankA.Y, 0)
	s.ErrorIs(err, model.ErrGameComplete)

	recent, err := s.d.Results(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(recent, 1)
}

func (s *DispatcherSuite) TestResultStoreFailureDoesNotFailMove() {
	var buf bytes.Buffer
	d := s.newDispatcher(brokenStore{})
	d.logger = testutil.BufferLogger(&buf)

	p, err := d.Register(s.ctx, "alice")
	s.Require().NoError(err)
	snap, err := d.CreateGame(s.ctx, p.ID, 1)
	s.Require().NoError(err)

	_, err = d.MakeMove(s.ctx, p.ID, snap.GameID, blankA.X, blankA.Y, testutil.SolvedValue(blankA))
	s.Require().NoError(err)
	snap, err = d.MakeMove(s.ctx, p.ID, snap.GameID, blankB.X, blankB.Y, testutil.SolvedValue(blankB))
	s.Require().NoError(err)
	s.Equal(model.GameStateComplete, snap.State)
	s.Contains(buf.String(), "failed to save game result")
}

func (s *DispatcherSuite) TestQuitGameReopensAndRemovesEmptyRoom() {
	alice := s.register("alice")
	bob := s.register("bob")
	snap, err := s.d.CreateGame(s.ctx, alice, 2)
	s.Require().NoError(err)
	id := snap.GameID
	_, err = s.d.JoinGame(s.ctx, bob, id)
	s.Require().NoError(err)

	s.Require().NoError(s.d.QuitGame(s.ctx, bob, id))
	snap, err = s.d.FetchState(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(model.GameStateOpen, snap.State)

	s.Require().NoError(s.d.QuitGame(s.ctx, alice, id))
	_, err = s.d.FetchState(s.ctx, id)
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *DispatcherSuite) TestQuitServerLeavesEveryGame() {
	alice := s.register("alice")
	bob := s.register("bob")
	s.random.QueueString("GAME01", "GAME02")

	_, err := s.d.CreateGame(s.ctx, alice, 3)
	s.Require().NoError(err)
	_, err = s.d.CreateGame(s.ctx, bob, 3)
	s.Require().NoError(err)
	_, err = s.d.JoinGame(s.ctx, alice, "GAME02")
	s.Require().NoError(err)

	s.Require().NoError(s.d.QuitServer(s.ctx, alice))
	s.Require().NoError(s.d.QuitServer(s.ctx, alice))

	_, err = s.d.FetchState(s.ctx, "GAME01")
	s.ErrorIs(err, model.ErrGameNotFound)
	snap, err := s.d.FetchState(s.ctx, "GAME02")
	s.Require().NoError(err)
	s.Require().Len(snap.Seats, 1)
	s.Equal(bob, snap.Seats[0].PlayerID)

	_, err = s.d.CreateGame(s.ctx, alice, 2)
	s.ErrorIs(err, model.ErrPlayerNotFound)
	s.Equal(Stats{Players: 1, Games: 1, OpenGames: 1}, s.d.Stats())
}

func (s *DispatcherSuite) TestQuitServerDuringJoinLeavesNoSeat() {
	alice := s.register("alice")
	bob := s.register("bob")
	s.random.QueueString("ROOM01")
	_, err := s.d.CreateGame(s.ctx, alice, 3)
	s.Require().NoError(err)

	// bob quits after the join has checked his registration
	s.d.players = &quittingRegistry{RegistryInterface: s.d.players, onGet: func() {
		s.Require().NoError(s.d.QuitServer(s.ctx, bob))
	}}

	_, err = s.d.JoinGame(s.ctx, bob, "ROOM01")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	snap, err := s.d.FetchState(s.ctx, "ROOM01")
	s.Require().NoError(err)
	s.Require().Len(snap.Seats, 1)
	s.Equal(alice, snap.Seats[0].PlayerID)
	s.Equal(model.GameStateOpen, snap.State)
}

func (s *DispatcherSuite) TestQuitServerDuringCreateRemovesRoom() {
	alice := s.register("alice")
	s.random.QueueString("ROOM01")

	s.d.players = &quittingRegistry{RegistryInterface: s.d.players, onGet: func() {
		s.Require().NoError(s.d.QuitServer(s.ctx, alice))
	}}

	_, err := s.d.CreateGame(s.ctx, alice, 2)
	s.ErrorIs(err, model.ErrPlayerNotFound)
	s.Equal(Stats{}, s.d.Stats())
}

func (s *DispatcherSuite) TestWatch() {
	alice := s.register("alice")
	snap, err := s.d.CreateGame(s.ctx, alice, 1)
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	updates, err := s.d.Watch(ctx, alice, snap.GameID)
	s.Require().NoError(err)

	first := s.receive(updates)
	s.Equal(0, first.Board.Get(blankA))

	_, err = s.d.MakeMove(s.ctx, alice, snap.GameID, blankA.X, blankA.Y, testutil.SolvedValue(blankA))
	s.Require().NoError(err)
	s.Equal(testutil.SolvedValue(blankA), s.receive(updates).Board.Get(blankA))

	_, err = s.d.MakeMove(s.ctx, alice, snap.GameID, blankB.X, blankB.Y, testutil.SolvedValue(blankB))
	s.Require().NoError(err)
	s.Equal(model.GameStateComplete, s.receive(updates).State)

	select {
	case _, ok := <-updates:
		s.False(ok, "stream should close after completion")
	case <-time.After(time.Second):
		s.Fail("stream did not close")
	}
}

func (s *DispatcherSuite) TestWatchRequiresSeat() {
	alice := s.register("alice")
	bob := s.register("bob")
	snap, err := s.d.CreateGame(s.ctx, alice, 2)
	s.Require().NoError(err)

	_, err = s.d.Watch(s.ctx, bob, snap.GameID)
	s.ErrorIs(err, model.ErrNotSeated)
}

func (s *DispatcherSuite) TestWatchStopsOnCancel() {
	alice := s.register("alice")
	snap, err := s.d.CreateGame(s.ctx, alice, 2)
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(s.ctx)
	updates, err := s.d.Watch(ctx, alice, snap.GameID)
	s.Require().NoError(err)
	s.receive(updates)
	cancel()

	s.Eventually(func() bool {
		select {
		case _, ok := <-updates:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func (s *DispatcherSuite) receive(updates <-chan model.GameSnapshot) model.GameSnapshot {
	select {
	case snap, ok := <-updates:
		s.Require().True(ok, "stream closed")
		return snap
	case <-time.After(time.Second):
		s.FailNow("no update received")
	}
	return model.GameSnapshot{}
}
