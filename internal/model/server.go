package model

// ServerInfo is a game server learned from presence datagrams
type ServerInfo struct {
	Address string
	Name    string
	// OpenGames is the advertised number of joinable rooms, or -1 when the
	// server did not say
	OpenGames int
}
