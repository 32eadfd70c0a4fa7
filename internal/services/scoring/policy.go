package scoring

import "fmt"

// Policy names accepted by FromName
const (
	PolicyFixed   = "fixed"
	PolicyPerCell = "per_cell"
)

// DefaultCompletionPoints is the credit awarded by the default policy
const DefaultCompletionPoints = 10

// MoveContext describes the move that completed a board
type MoveContext struct {
	// PlayerMoves counts the accepted moves the completing player made in
	// this game, including the completing move
	PlayerMoves int
	// EmptyAtStart is the number of writable cells the puzzle started with
	EmptyAtStart int
	// SeatCount is the number of players seated when the board completed
	SeatCount int
}

// Policy decides how many points the player who completes a board earns
type Policy interface {
	CompletionCredit(mc MoveContext) int
}

// Fixed awards the same number of points for every completion
type Fixed struct {
	Points int
}

// CompletionCredit returns the fixed award
func (f Fixed) CompletionCredit(MoveContext) int {
	return f.Points
}

// PerCell awards points for each move the completing player contributed
type PerCell struct {
	PointsPerCell int
}

// CompletionCredit returns PointsPerCell for each of the player's moves
func (p PerCell) CompletionCredit(mc MoveContext) int {
	return p.PointsPerCell * mc.PlayerMoves
}

// FromName builds a policy from its configured name
func FromName(name string, points int) (Policy, error) {
	if points <= 0 {
		return nil, fmt.Errorf("scoring points must be positive, got %d", points)
	}
	switch name {
	case "", PolicyFixed:
		return Fixed{Points: points}, nil
	case PolicyPerCell:
		return PerCell{PointsPerCell: points}, nil
	default:
		return nil, fmt.Errorf("unknown scoring policy %q", name)
	}
}
