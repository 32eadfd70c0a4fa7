package model

import "errors"

// Common errors used across the application
var (
	// Validation errors
	ErrInvalidNickname  = errors.New("nickname must be 1-8 characters with no whitespace")
	ErrInvalidCapacity  = errors.New("max players must be a positive integer")
	ErrOutOfRange       = errors.New("move out of range")
	ErrMalformedRequest = errors.New("malformed request")

	// Lookup errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrGameNotFound   = errors.New("game not found")
	ErrResultNotFound = errors.New("result not found")

	// Capacity errors
	ErrGameFull = errors.New("game is full")

	// Rejected actions
	ErrNotSeated     = errors.New("player is not seated in this game")
	ErrCellLocked    = errors.New("cell is part of the puzzle")
	ErrGameComplete  = errors.New("game is already complete")
	ErrNicknameTaken = errors.New("nickname is already in use")
	ErrNotRegistered = errors.New("register before making requests")
	ErrNoCurrentGame = errors.New("not in a game")

	// Puzzle errors
	ErrInvalidPuzzle = errors.New("invalid puzzle")
	ErrNoPuzzles     = errors.New("puzzle catalogue is empty")
)

// ErrorKind groups errors by how callers should react to them
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindCapacity
	KindRejected
)

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidNickname), errors.Is(err, ErrInvalidCapacity),
		errors.Is(err, ErrOutOfRange), errors.Is(err, ErrMalformedRequest):
		return KindValidation
	case errors.Is(err, ErrPlayerNotFound), errors.Is(err, ErrGameNotFound),
		errors.Is(err, ErrResultNotFound):
		return KindNotFound
	case errors.Is(err, ErrGameFull):
		return KindCapacity
	case errors.Is(err, ErrNotSeated), errors.Is(err, ErrCellLocked),
		errors.Is(err, ErrGameComplete), errors.Is(err, ErrNicknameTaken),
		errors.Is(err, ErrNotRegistered), errors.Is(err, ErrNoCurrentGame):
		return KindRejected
	default:
		return KindInternal
	}
}
