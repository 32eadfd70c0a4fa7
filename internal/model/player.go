package model

import "time"

// PlayerID uniquely identifies a registered player
type PlayerID string

// MaxNicknameLength is the longest nickname accepted at registration
const MaxNicknameLength = 8

// Player is a registered participant. Games refer to players by ID only.
type Player struct {
	ID           PlayerID
	Nickname     string
	RegisteredAt time.Time
}
