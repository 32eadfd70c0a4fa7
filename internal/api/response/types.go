package response

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// Player represents a player in API responses
type Player struct {
	ID           string    `json:"id"`
	Nickname     string    `json:"nickname"`
	RegisteredAt time.Time `json:"registered_at"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p model.Player) Player {
	return Player{
		ID:           string(p.ID),
		Nickname:     p.Nickname,
		RegisteredAt: p.RegisteredAt,
	}
}

// GameSummary is one row of the game listing
type GameSummary struct {
	ID         string `json:"id"`
	SeatCount  int    `json:"seat_count"`
	MaxPlayers int    `json:"max_players"`
	State      string `json:"state"`
}

// GameSummaryFromModel converts a model.GameSummary
func GameSummaryFromModel(s model.GameSummary) GameSummary {
	return GameSummary{
		ID:         string(s.ID),
		SeatCount:  s.SeatCount,
		MaxPlayers: s.MaxPlayers,
		State:      string(s.State),
	}
}

// ToModel converts back to a model.GameSummary
func (s GameSummary) ToModel() model.GameSummary {
	return model.GameSummary{
		ID:         model.GameID(s.ID),
		SeatCount:  s.SeatCount,
		MaxPlayers: s.MaxPlayers,
		State:      model.GameState(s.State),
	}
}

// GameSummariesFromModel converts a listing
func GameSummariesFromModel(list []model.GameSummary) []GameSummary {
	out := make([]GameSummary, len(list))
	for i, s := range list {
		out[i] = GameSummaryFromModel(s)
	}
	return out
}

// Board is a grid in API responses. Rows are strings of nine digits with '0'
// for empty cells; Givens marks puzzle cells the same way with '1'.
type Board struct {
	Rows   []string `json:"rows"`
	Givens []string `json:"givens"`
}

// BoardFromModel converts a model.Board
func BoardFromModel(b model.Board) Board {
	out := Board{
		Rows:   make([]string, model.BoardSize),
		Givens: make([]string, model.BoardSize),
	}
	for x := range model.BoardSize {
		var row, givens strings.Builder
		for y := range model.BoardSize {
			row.WriteByte(byte('0' + b.Cells[x][y]))
			if b.Mask[x][y] {
				givens.WriteByte('1')
			} else {
				givens.WriteByte('0')
			}
		}
		out.Rows[x] = row.String()
		out.Givens[x] = givens.String()
	}
	return out
}

// ToModel parses the board back. Malformed rows fail with
// model.ErrMalformedRequest.
func (b Board) ToModel() (model.Board, error) {
	var out model.Board
	if len(b.Rows) != model.BoardSize || len(b.Givens) != model.BoardSize {
		return out, fmt.Errorf("%w: board needs %d rows", model.ErrMalformedRequest, model.BoardSize)
	}
	for x := range model.BoardSize {
		row, givens := b.Rows[x], b.Givens[x]
		if len(row) != model.BoardSize || len(givens) != model.BoardSize {
			return out, fmt.Errorf("%w: row %d has the wrong length", model.ErrMalformedRequest, x)
		}
		for y := range model.BoardSize {
			if row[y] < '0' || row[y] > '0'+model.MaxCellValue {
				return out, fmt.Errorf("%w: bad digit %q", model.ErrMalformedRequest, row[y])
			}
			out.Cells[x][y] = int(row[y] - '0')
			out.Mask[x][y] = givens[y] == '1'
		}
	}
	return out, nil
}

// Seat is one seated player
type Seat struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

// GameSnapshot is the full state of one game
type GameSnapshot struct {
	GameID     string `json:"game_id"`
	MaxPlayers int    `json:"max_players"`
	State      string `json:"state"`
	Board      Board  `json:"board"`
	Seats      []Seat `json:"seats"`
}

// GameSnapshotFromModel converts a model.GameSnapshot
func GameSnapshotFromModel(s model.GameSnapshot) GameSnapshot {
	seats := make([]Seat, len(s.Seats))
	for i, seat := range s.Seats {
		seats[i] = Seat{
			PlayerID: string(seat.PlayerID),
			Nickname: seat.Nickname,
			Score:    seat.Score,
		}
	}
	return GameSnapshot{
		GameID:     string(s.GameID),
		MaxPlayers: s.MaxPlayers,
		State:      string(s.State),
		Board:      BoardFromModel(s.Board),
		Seats:      seats,
	}
}

// ToModel converts back to a model.GameSnapshot
func (s GameSnapshot) ToModel() (model.GameSnapshot, error) {
	b, err := s.Board.ToModel()
	if err != nil {
		return model.GameSnapshot{}, err
	}
	seats := make([]model.SeatView, len(s.Seats))
	for i, seat := range s.Seats {
		seats[i] = model.SeatView{
			PlayerID: model.PlayerID(seat.PlayerID),
			Nickname: seat.Nickname,
			Score:    seat.Score,
		}
	}
	return model.GameSnapshot{
		GameID:     model.GameID(s.GameID),
		MaxPlayers: s.MaxPlayers,
		Board:      b,
		Seats:      seats,
		State:      model.GameState(s.State),
	}, nil
}

// Standing is one placing in a finished game
type Standing struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// GameResult represents a completed game
type GameResult struct {
	GameID      string     `json:"game_id"`
	Winner      *string    `json:"winner"`
	Standings   []Standing `json:"standings"`
	CompletedAt time.Time  `json:"completed_at"`
}

// GameResultFromModel converts a model.GameResult. A tie has a null winner.
func GameResultFromModel(r *model.GameResult) GameResult {
	standings := make([]Standing, len(r.Standings))
	for i, st := range r.Standings {
		standings[i] = Standing{
			PlayerID: string(st.PlayerID),
			Nickname: st.Nickname,
			Score:    st.Score,
			Rank:     st.Rank,
		}
	}

	var winner *string
	if r.Winner != "" {
		w := string(r.Winner)
		winner = &w
	}

	return GameResult{
		GameID:      string(r.GameID),
		Winner:      winner,
		Standings:   standings,
		CompletedAt: r.CompletedAt,
	}
}

// Health is the health check response
type Health struct {
	Status    string `json:"status"`
	Players   int    `json:"players"`
	Games     int    `json:"games"`
	OpenGames int    `json:"open_games"`
}
