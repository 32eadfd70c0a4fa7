package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu      sync.RWMutex
	results map[model.GameID]*model.GameResult
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		results: make(map[model.GameID]*model.GameResult),
	}
}

// Ensure Storage implements the interface
var _ storage.ResultStore = (*Storage)(nil)

func (s *Storage) SaveResult(ctx context.Context, result *model.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.GameID] = copyResult(result)
	return nil
}

func (s *Storage) GetResult(ctx context.Context, id model.GameID) (*model.GameResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return nil, model.ErrResultNotFound
	}
	return copyResult(r), nil
}

func (s *Storage) ListResults(ctx context.Context, limit int) ([]*model.GameResult, error) {
	s.mu.RLock()
	out := make([]*model.GameResult, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, copyResult(r))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].GameID < out[j].GameID
		}
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Storage) Close() error {
	return nil
}

func copyResult(r *model.GameResult) *model.GameResult {
	c := *r
	c.Standings = append([]model.Standing(nil), r.Standings...)
	return &c
}
