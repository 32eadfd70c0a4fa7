package model

import "time"

// GameID uniquely identifies a game room
type GameID string

// GameState is the joinability and completion status of a game
type GameState string

const (
	GameStateOpen     GameState = "OPEN"     // Seats available
	GameStateFull     GameState = "FULL"     // Every seat taken, puzzle unsolved
	GameStateComplete GameState = "COMPLETE" // Board solved; permanent
)

// Joinable reports whether a new player may take a seat
func (s GameState) Joinable() bool {
	return s == GameStateOpen
}

// GameSummary is the listing view of a game. It never carries the board.
type GameSummary struct {
	ID         GameID
	SeatCount  int
	MaxPlayers int
	State      GameState
}

// SeatView is one seated player as shown to clients
type SeatView struct {
	Nickname string
	Score    int
	PlayerID PlayerID
}

// GameSnapshot is a consistent read of a game's board, seats and state
type GameSnapshot struct {
	GameID     GameID
	MaxPlayers int
	Board      Board
	Seats      []SeatView // seat order
	State      GameState
}

// Standing is one player's final placing in a completed game
type Standing struct {
	PlayerID PlayerID
	Nickname string
	Score    int
	Rank     int
}

// GameResult records a completed game
type GameResult struct {
	GameID      GameID
	Winner      PlayerID
	Standings   []Standing
	CompletedAt time.Time
}
