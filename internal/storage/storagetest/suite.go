// Package storagetest holds behaviour tests shared by every ResultStore.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/storage"
)

// ResultStoreSuite runs the ResultStore contract against Store. Backends
// embed it and set Store in SetupTest.
type ResultStoreSuite struct {
	suite.Suite
	Store storage.ResultStore
	Ctx   context.Context
}

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func result(id string, offset time.Duration) *model.GameResult {
	return &model.GameResult{
		GameID:      model.GameID(id),
		Winner:      "p1",
		CompletedAt: base.Add(offset),
		Standings: []model.Standing{
			{PlayerID: "p1", Nickname: "alice", Score: 10, Rank: 1},
			{PlayerID: "p2", Nickname: "bob", Score: 0, Rank: 2},
		},
	}
}

func (s *ResultStoreSuite) TestSaveAndGet() {
	want := result("G1", 0)
	s.Require().NoError(s.Store.SaveResult(s.Ctx, want))

	got, err := s.Store.GetResult(s.Ctx, "G1")
	s.Require().NoError(err)
	s.Equal(want.GameID, got.GameID)
	s.Equal(want.Winner, got.Winner)
	s.True(want.CompletedAt.Equal(got.CompletedAt))
	s.Equal(want.Standings, got.Standings)
}

func (s *ResultStoreSuite) TestGetNotFound() {
	_, err := s.Store.GetResult(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrResultNotFound)
}

func (s *ResultStoreSuite) TestSaveReplaces() {
	s.Require().NoError(s.Store.SaveResult(s.Ctx, result("G1", 0)))
	updated := result("G1", time.Minute)
	updated.Winner = ""
	s.Require().NoError(s.Store.SaveResult(s.Ctx, updated))

	got, err := s.Store.GetResult(s.Ctx, "G1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID(""), got.Winner)

	all, err := s.Store.ListResults(s.Ctx, 0)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *ResultStoreSuite) TestListNewestFirst() {
	s.Require().NoError(s.Store.SaveResult(s.Ctx, result("OLD", 0)))
	s.Require().NoError(s.Store.SaveResult(s.Ctx, result("NEW", 2*time.Minute)))
	s.Require().NoError(s.Store.SaveResult(s.Ctx, result("MID", time.Minute)))

	all, err := s.Store.ListResults(s.Ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(model.GameID("NEW"), all[0].GameID)
	s.Equal(model.GameID("MID"), all[1].GameID)
	s.Equal(model.GameID("OLD"), all[2].GameID)

	limited, err := s.Store.ListResults(s.Ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(limited, 2)
	s.Equal(model.GameID("NEW"), limited[0].GameID)
}

func (s *ResultStoreSuite) TestListEmpty() {
	all, err := s.Store.ListResults(s.Ctx, 10)
	s.Require().NoError(err)
	s.Empty(all)
}
