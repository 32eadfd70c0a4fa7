package lobby

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/competitive-sudoku-go/internal/dependencies/mocks"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/services/board"
	"github.com/mcoot/competitive-sudoku-go/internal/services/scoring"
	"github.com/mcoot/competitive-sudoku-go/internal/testutil"
)

type failingProvider struct{}

func (failingProvider) Next(context.Context) (model.Board, error) {
	return model.Board{}, errors.New("no boards today")
}

type RegistrySuite struct {
	suite.Suite
	random   *mocks.MockRandom
	registry *Registry
	ctx      context.Context
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	s.registry = s.newRegistry(board.Static{Board: model.BoardFromGrid(testutil.PuzzleGrid(model.Position{}))})
	s.ctx = context.Background()
}

func (s *RegistrySuite) newRegistry(p board.Provider) *Registry {
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return NewRegistry(DefaultConfig(), p, scoring.New(nil), clk, s.random, testutil.NopLogger())
}

func (s *RegistrySuite) TestCreate() {
	s.random.QueueString("ROOM01")

	g, err := s.registry.Create(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal(model.GameID("ROOM01"), g.ID())
	s.Equal(model.GameSummary{ID: "ROOM01", SeatCount: 0, MaxPlayers: 3, State: model.GameStateOpen}, g.Summary())

	got, err := s.registry.Get("ROOM01")
	s.Require().NoError(err)
	s.Same(g, got)
}

func (s *RegistrySuite) TestCreateInvalidCapacity() {
	for _, n := range []int{0, -3, DefaultMaxPlayersLimit + 1} {
		_, err := s.registry.Create(s.ctx, n)
		s.ErrorIs(err, model.ErrInvalidCapacity, "%d", n)
	}
	s.Equal(0, s.registry.Count())
}

func (s *RegistrySuite) TestCreateRetriesTakenID() {
	s.random.QueueString("AAAAAA", "AAAAAA", "BBBBBB")

	a, err := s.registry.Create(s.ctx, 2)
	s.Require().NoError(err)
	b, err := s.registry.Create(s.ctx, 2)
	s.Require().NoError(err)

	s.Equal(model.GameID("AAAAAA"), a.ID())
	s.Equal(model.GameID("BBBBBB"), b.ID())
}

func (s *RegistrySuite) TestCreateProviderFailure() {
	reg := s.newRegistry(failingProvider{})
	_, err := reg.Create(s.ctx, 2)
	s.Error(err)
	s.Equal(0, reg.Count())
}

func (s *RegistrySuite) TestGetUnknown() {
	_, err := s.registry.Get("NOPE")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *RegistrySuite) TestListInCreationOrder() {
	s.random.QueueString("CCCCCC", "AAAAAA", "BBBBBB")
	for _, n := range []int{1, 2, 3} {
		_, err := s.registry.Create(s.ctx, n)
		s.Require().NoError(err)
	}

	list := s.registry.List()
	s.Require().Len(list, 3)
	s.Equal(model.GameID("CCCCCC"), list[0].ID)
	s.Equal(model.GameID("AAAAAA"), list[1].ID)
	s.Equal(model.GameID("BBBBBB"), list[2].ID)
	s.Equal(3, list[2].MaxPlayers)
}

func (s *RegistrySuite) TestListReflectsSeats() {
	g, err := s.registry.Create(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().NoError(g.AddPlayer("p1"))
	s.Require().NoError(g.AddPlayer("p2"))

	list := s.registry.List()
	s.Require().Len(list, 1)
	s.Equal(2, list[0].SeatCount)
	s.Equal(2, list[0].MaxPlayers)
	s.Equal(model.GameStateFull, list[0].State)
	s.Equal(0, s.registry.OpenCount())
}

func (s *RegistrySuite) TestRemove() {
	s.random.QueueString("AAAAAA", "BBBBBB")
	_, err := s.registry.Create(s.ctx, 2)
	s.Require().NoError(err)
	_, err = s.registry.Create(s.ctx, 2)
	s.Require().NoError(err)

	s.registry.Remove("AAAAAA")
	s.registry.Remove("AAAAAA")

	_, err = s.registry.Get("AAAAAA")
	s.ErrorIs(err, model.ErrGameNotFound)
	list := s.registry.List()
	s.Require().Len(list, 1)
	s.Equal(model.GameID("BBBBBB"), list[0].ID)
	s.Equal(1, s.registry.OpenCount())
}

func (s *RegistrySuite) TestConcurrentCreateAndList() {
	const n = 40
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.registry.Create(s.ctx, i%4+1)
			s.NoError(err, fmt.Sprint(i))
		}()
		go func() {
			defer wg.Done()
			for _, summary := range s.registry.List() {
				s.NotEmpty(summary.ID)
				s.Positive(summary.MaxPlayers)
			}
		}()
	}
	wg.Wait()
	s.Equal(n, s.registry.Count())
}

func (s *RegistrySuite) TestCreateSeatsInitialPlayers() {
	g, err := s.registry.Create(s.ctx, 2, "p1")
	s.Require().NoError(err)
	s.True(g.Seated("p1"))
	s.Equal(1, g.Summary().SeatCount)
}

func (s *RegistrySuite) TestJoin() {
	s.random.QueueString("ROOM01")
	_, err := s.registry.Create(s.ctx, 1)
	s.Require().NoError(err)

	g, err := s.registry.Join("ROOM01", "p1")
	s.Require().NoError(err)
	s.True(g.Seated("p1"))

	_, err = s.registry.Join("ROOM01", "p2")
	s.ErrorIs(err, model.ErrGameFull)

	_, err = s.registry.Join("NOPE", "p1")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *RegistrySuite) TestRemoveIfEmpty() {
	s.random.QueueString("ROOM01")
	g, err := s.registry.Create(s.ctx, 2, "p1")
	s.Require().NoError(err)

	s.False(s.registry.RemoveIfEmpty("ROOM01"))
	g.RemovePlayer("p1")
	s.True(s.registry.RemoveIfEmpty("ROOM01"))
	s.False(s.registry.RemoveIfEmpty("ROOM01"))
	s.Equal(0, s.registry.Count())
}
