// Package rpcproxy exposes the game service over net/rpc. Every connection
// gets its own rpc.Server and session, so the player identity belongs to the
// connection and never travels in the arguments.
package rpcproxy

import "github.com/mcoot/competitive-sudoku-go/internal/model"

// ServiceName is the receiver name registered on every connection
const ServiceName = "Sudoku"

// Empty is used where a call takes or returns nothing
type Empty struct{}

type RegisterArgs struct {
	Nickname string
}

type RegisterReply struct {
	PlayerID model.PlayerID
}

type GamesReply struct {
	Games []model.GameSummary
}

type CreateArgs struct {
	MaxPlayers int
}

type JoinArgs struct {
	GameID model.GameID
}

// MoveArgs is a guess in the session's current game
type MoveArgs struct {
	X     int
	Y     int
	Value int
}

type SnapshotReply struct {
	Snapshot model.GameSnapshot
}
