package storage

import (
	"context"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// ResultStore records completed games
type ResultStore interface {
	// SaveResult stores a result, replacing any earlier record for the game
	SaveResult(ctx context.Context, result *model.GameResult) error
	GetResult(ctx context.Context, id model.GameID) (*model.GameResult, error)
	// ListResults returns up to limit results, newest first. A limit of zero
	// or less returns everything.
	ListResults(ctx context.Context, limit int) ([]*model.GameResult, error)
	Close() error
}
