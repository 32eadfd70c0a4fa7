package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/services/scoring"
	"github.com/mcoot/competitive-sudoku-go/internal/testutil"
)

type mapDirectory map[model.PlayerID]string

func (d mapDirectory) Lookup(id model.PlayerID) (string, error) {
	nick, ok := d[id]
	if !ok {
		return "", model.ErrPlayerNotFound
	}
	return nick, nil
}

var (
	lastCell = model.Position{X: 8, Y: 8}
	openCell = model.Position{X: 0, Y: 0}
)

type GameSuite struct {
	suite.Suite
	game *Game
	now  time.Time
}

func TestGameSuite(t *testing.T) {
	suite.Run(t, new(GameSuite))
}

func (s *GameSuite) SetupTest() {
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.game = s.newGame(2, openCell, lastCell)
}

func (s *GameSuite) newGame(maxPlayers int, blanks ...model.Position) *Game {
	board := model.BoardFromGrid(testutil.PuzzleGrid(blanks...))
	g, err := New("G1", maxPlayers, board, scoring.New(nil), s.now, testutil.NopLogger())
	s.Require().NoError(err)
	return g
}

func (s *GameSuite) TestNewRejectsBadCapacity() {
	for _, n := range []int{0, -1} {
		_, err := New("G", n, model.Board{}, scoring.New(nil), s.now, testutil.NopLogger())
		s.ErrorIs(err, model.ErrInvalidCapacity)
	}
}

func (s *GameSuite) TestFillsToCapacity() {
	for _, n := range []int{1, 2, 5} {
		g := s.newGame(n, openCell)
		for i := range n {
			s.Equal(model.GameStateOpen, g.Summary().State)
			s.Require().NoError(g.AddPlayer(model.PlayerID(rune('a' + i))))
		}
		s.Equal(model.GameStateFull, g.Summary().State)
		s.Equal(n, g.Summary().SeatCount)

		s.ErrorIs(g.AddPlayer("late"), model.ErrGameFull)
		s.Equal(n, g.Summary().SeatCount)
	}
}

func (s *GameSuite) TestAddPlayerTwiceKeepsOneSeat() {
	s.Require().NoError(s.game.AddPlayer("p1"))
	s.Require().NoError(s.game.AddPlayer("p1"))
	s.Equal(1, s.game.Summary().SeatCount)
}

func (s *GameSuite) TestRemovePlayerReevaluatesFullness() {
	s.Require().NoError(s.game.AddPlayer("p1"))
	s.Require().NoError(s.game.AddPlayer("p2"))
	s.Equal(model.GameStateFull, s.game.Summary().State)

	s.Equal(1, s.game.RemovePlayer("p1"))
	s.Equal(model.GameStateOpen, s.game.Summary().State)

	s.Equal(1, s.game.RemovePlayer("absent"))
	s.Require().NoError(s.game.AddPlayer("p3"))
	s.Equal(model.GameStateFull, s.game.Summary().State)
}

func (s *GameSuite) TestCompleteIsPermanent() {
	g := s.newGame(3, lastCell)
	s.Require().NoError(g.AddPlayer("p1"))
	_, err := g.MakeMove("p1", lastCell.X, lastCell.Y, testutil.SolvedValue(lastCell))
	s.Require().NoError(err)

	s.Equal(0, g.RemovePlayer("p1"))
	s.Equal(model.GameStateComplete, g.Summary().State)
	s.ErrorIs(g.AddPlayer("p2"), model.ErrGameFull)
}

func (s *GameSuite) TestMoveRequiresSeat() {
	_, err := s.game.MakeMove("stranger", 0, 0, 5)
	s.ErrorIs(err, model.ErrNotSeated)

	// seat check comes before range check
	_, err = s.game.MakeMove("stranger", 99, 0, 5)
	s.ErrorIs(err, model.ErrNotSeated)
}

func (s *GameSuite) TestOutOfRangeLeavesBoardUnchanged() {
	s.Require().NoError(s.game.AddPlayer("p1"))
	before := s.game.State(nil).Board

	cases := [][3]int{
		{-1, 0, 1}, {9, 0, 1}, {0, -1, 1}, {0, 9, 1},
		{0, 0, -1}, {0, 0, 10},
	}
	for _, c := range cases {
		_, err := s.game.MakeMove("p1", c[0], c[1], c[2])
		s.ErrorIs(err, model.ErrOutOfRange, "%v", c)
		s.Equal(before, s.game.State(nil).Board)
	}
}

func (s *GameSuite) TestLockedCellRejectsEveryValue() {
	s.Require().NoError(s.game.AddPlayer("p1"))
	before := s.game.State(nil).Board

	for v := 0; v <= model.MaxCellValue; v++ {
		_, err := s.game.MakeMove("p1", 0, 1, v)
		s.ErrorIs(err, model.ErrCellLocked)
	}
	s.Equal(before, s.game.State(nil).Board)
}

func (s *GameSuite) TestMoveOnEmptyCell() {
	g := s.newGame(2, openCell, model.Position{X: 0, Y: 2}, lastCell)
	s.Require().NoError(g.AddPlayer("p1"))

	res, err := g.MakeMove("p1", 0, 0, 5)
	s.Require().NoError(err)
	s.Equal(5, res.Board.Get(openCell))
	s.Equal(model.GameStateOpen, res.State)
	s.False(res.Completed)
	s.Equal([]SeatScore{{PlayerID: "p1", Score: 0}}, res.Scores)
}

func (s *GameSuite) TestWriteIsIdempotent() {
	s.Require().NoError(s.game.AddPlayer("p1"))

	first, err := s.game.MakeMove("p1", 0, 0, 7)
	s.Require().NoError(err)
	second, err := s.game.MakeMove("p1", 0, 0, 7)
	s.Require().NoError(err)

	s.Equal(first.Board, second.Board)
}

func (s *GameSuite) TestClearCellWithZero() {
	s.Require().NoError(s.game.AddPlayer("p1"))
	_, err := s.game.MakeMove("p1", 0, 0, 7)
	s.Require().NoError(err)

	res, err := s.game.MakeMove("p1", 0, 0, 0)
	s.Require().NoError(err)
	s.Equal(0, res.Board.Get(openCell))
}

func (s *GameSuite) TestCompletingMoveCreditsMover() {
	s.Require().NoError(s.game.AddPlayer("p1"))
	s.Require().NoError(s.game.AddPlayer("p2"))

	res, err := s.game.MakeMove("p1", openCell.X, openCell.Y, testutil.SolvedValue(openCell))
	s.Require().NoError(err)
	s.False(res.Completed)
	s.Equal(model.GameStateFull, res.State)

	res, err = s.game.MakeMove("p2", lastCell.X, lastCell.Y, testutil.SolvedValue(lastCell))
	s.Require().NoError(err)
	s.True(res.Completed)
	s.Equal(model.GameStateComplete, res.State)
	s.Equal(0, res.Scores[0].Score)
	s.Equal(scoring.DefaultCompletionPoints, res.Scores[1].Score)
}

func (s *GameSuite) TestFullButInvalidBoardDoesNotComplete() {
	g := s.newGame(1, lastCell)
	s.Require().NoError(g.AddPlayer("p1"))

	wrong := testutil.SolvedValue(lastCell)%9 + 1
	res, err := g.MakeMove("p1", lastCell.X, lastCell.Y, wrong)
	s.Require().NoError(err)
	s.False(res.Completed)
	s.Equal(model.GameStateFull, res.State)
}

func (s *GameSuite) TestMovesAfterCompletionRejected() {
	g := s.newGame(2, lastCell)
	s.Require().NoError(g.AddPlayer("p1"))
	_, err := g.MakeMove("p1", lastCell.X, lastCell.Y, testutil.SolvedValue(lastCell))
	s.Require().NoError(err)

	_, err = g.MakeMove("p1", lastCell.X, lastCell.Y, 1)
	s.ErrorIs(err, model.ErrGameComplete)
	s.Equal(testutil.SolvedValue(lastCell), g.State(nil).Board.Get(lastCell))
}

func (s *GameSuite) TestConcurrentSameCellMoves() {
	g := s.newGame(2, openCell, lastCell)
	s.Require().NoError(g.AddPlayer("p1"))
	s.Require().NoError(g.AddPlayer("p2"))

	for range 100 {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = g.MakeMove("p1", 0, 0, 3)
		}()
		go func() {
			defer wg.Done()
			_, _ = g.MakeMove("p2", 0, 0, 4)
		}()
		wg.Wait()

		v := g.State(nil).Board.Get(openCell)
		s.Contains([]int{3, 4}, v)
		s.Equal(v, g.State(nil).Board.Get(openCell))
	}
}

func (s *GameSuite) TestStateResolvesNicknamesInSeatOrder() {
	s.Require().NoError(s.game.AddPlayer("p2"))
	s.Require().NoError(s.game.AddPlayer("p1"))

	snap := s.game.State(mapDirectory{"p1": "alice", "p2": "bob"})
	s.Equal(model.GameID("G1"), snap.GameID)
	s.Equal(2, snap.MaxPlayers)
	s.Equal([]model.SeatView{
		{Nickname: "bob", Score: 0, PlayerID: "p2"},
		{Nickname: "alice", Score: 0, PlayerID: "p1"},
	}, snap.Seats)
	s.Equal(model.GameStateFull, snap.State)

	snap = s.game.State(mapDirectory{})
	s.Equal("", snap.Seats[0].Nickname)
}

func (s *GameSuite) TestChangedClosesOnMutation() {
	ch := s.game.Changed()
	select {
	case <-ch:
		s.Fail("closed before any change")
	default:
	}

	s.Require().NoError(s.game.AddPlayer("p1"))
	select {
	case <-ch:
	default:
		s.Fail("not closed after seating")
	}

	next := s.game.Changed()
	s.NotEqual(ch, next)
	_, err := s.game.MakeMove("p1", 0, 0, 1)
	s.Require().NoError(err)
	select {
	case <-next:
	default:
		s.Fail("not closed after move")
	}
}

func (s *GameSuite) TestRejectedMoveDoesNotNotify() {
	ch := s.game.Changed()
	_, err := s.game.MakeMove("nobody", 0, 0, 1)
	s.Require().Error(err)
	select {
	case <-ch:
		s.Fail("rejected move should not notify")
	default:
	}
}
