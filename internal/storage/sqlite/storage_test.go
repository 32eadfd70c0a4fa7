package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.ResultStoreSuite
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	store, err := New(MemoryPath)
	s.Require().NoError(err)
	s.Store = store
	s.Ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

func (s *StorageSuite) TestReopenFileKeepsResults() {
	path := filepath.Join(s.T().TempDir(), "results.db")

	first, err := New(path)
	s.Require().NoError(err)
	s.Require().NoError(first.SaveResult(s.Ctx, &model.GameResult{GameID: "G9", Winner: "p1"}))
	s.Require().NoError(first.Close())

	second, err := New(path)
	s.Require().NoError(err)
	defer second.Close()

	got, err := second.GetResult(s.Ctx, "G9")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), got.Winner)
	s.Empty(got.Standings)
}
