package scoring

import (
	"sort"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// Service applies a scoring policy and ranks finished games
type Service struct {
	policy Policy
}

// New creates a Service around policy. A nil policy uses Fixed with
// DefaultCompletionPoints.
func New(policy Policy) *Service {
	if policy == nil {
		policy = Fixed{Points: DefaultCompletionPoints}
	}
	return &Service{policy: policy}
}

// CompletionCredit returns the policy's award, never less than 1 so that a
// completion is always visible in the scores
func (s *Service) CompletionCredit(mc MoveContext) int {
	return max(1, s.policy.CompletionCredit(mc))
}

// Standings ranks seats by score descending. Ties keep seat order and
// share a rank (1, 1, 3).
func (s *Service) Standings(seats []model.SeatView) []model.Standing {
	standings := make([]model.Standing, len(seats))
	for i, seat := range seats {
		standings[i] = model.Standing{
			PlayerID: seat.PlayerID,
			Nickname: seat.Nickname,
			Score:    seat.Score,
		}
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})

	for i := range standings {
		if i > 0 && standings[i].Score == standings[i-1].Score {
			standings[i].Rank = standings[i-1].Rank
		} else {
			standings[i].Rank = i + 1
		}
	}
	return standings
}

// DetermineWinner returns the sole top scorer, or empty on a tie
func (s *Service) DetermineWinner(standings []model.Standing) model.PlayerID {
	if len(standings) == 0 {
		return ""
	}
	if len(standings) > 1 && standings[1].Rank == 1 {
		return ""
	}
	return standings[0].PlayerID
}

// Interface for dependency injection
type ServiceInterface interface {
	Policy
	Standings(seats []model.SeatView) []model.Standing
	DetermineWinner(standings []model.Standing) model.PlayerID
}

var _ ServiceInterface = (*Service)(nil)
