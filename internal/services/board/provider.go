package board

import (
	"context"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// Provider supplies the starting board for each new game
type Provider interface {
	Next(ctx context.Context) (model.Board, error)
}

// Static always provides the same board
type Static struct {
	Board model.Board
}

// Next returns a copy of the static board
func (s Static) Next(context.Context) (model.Board, error) {
	return s.Board.Clone(), nil
}

var _ Provider = Static{}
