package request

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Nickname string `json:"nickname"`
}

// CreateGameRequest is the request body for opening a game
type CreateGameRequest struct {
	MaxPlayers int `json:"max_players"`
}

// MoveRequest is the request body for writing a cell. X is the row and Y the
// column; value 0 clears the cell.
type MoveRequest struct {
	X     *int `json:"x"`
	Y     *int `json:"y"`
	Value *int `json:"value"`
}
