package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/competitive-sudoku-go/internal/api/response"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Server is one discovered server
type Server struct {
	Address   string `json:"address"`
	Name      string `json:"name"`
	OpenGames *int   `json:"open_games"`
}

// ServersFromModel converts presence results. A missing hint becomes null.
func ServersFromModel(list []model.ServerInfo) []Server {
	out := make([]Server, len(list))
	for i, s := range list {
		out[i] = Server{Address: s.Address, Name: s.Name}
		if s.OpenGames >= 0 {
			n := s.OpenGames
			out[i].OpenGames = &n
		}
	}
	return out
}

// Registered is printed after a successful register
type Registered struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Server   string `json:"server"`
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Registered:
		fmt.Fprintf(o.w, "Registered %s as %s on %s\n", v.Nickname, v.PlayerID, v.Server)
	case []Server:
		o.printServers(v)
	case []response.GameSummary:
		o.printGames(v)
	case response.GameSnapshot:
		o.printSnapshot(v)
	case []response.GameResult:
		o.printResults(v)
	case response.Health:
		fmt.Fprintf(o.w, "Status: %s\nPlayers: %d\nGames: %d (%d open)\n", v.Status, v.Players, v.Games, v.OpenGames)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printServers(servers []Server) {
	if len(servers) == 0 {
		fmt.Fprintln(o.w, "No servers found")
		return
	}
	for _, s := range servers {
		open := "?"
		if s.OpenGames != nil {
			open = fmt.Sprint(*s.OpenGames)
		}
		fmt.Fprintf(o.w, "%-21s  %-12s  open games: %s\n", s.Address, s.Name, open)
	}
}

func (o *Output) printGames(games []response.GameSummary) {
	if len(games) == 0 {
		fmt.Fprintln(o.w, "No games")
		return
	}
	fmt.Fprintf(o.w, "%-8s  %-7s  %-8s\n", "ID", "SEATS", "STATE")
	for _, g := range games {
		fmt.Fprintf(o.w, "%-8s  %d/%-5d  %-8s\n", g.ID, g.SeatCount, g.MaxPlayers, g.State)
	}
}

func (o *Output) printSnapshot(s response.GameSnapshot) {
	fmt.Fprintf(o.w, "Game: %s\n", s.GameID)
	fmt.Fprintf(o.w, "State: %s\n", s.State)
	fmt.Fprintf(o.w, "Seats: %d/%d\n", len(s.Seats), s.MaxPlayers)
	for _, seat := range s.Seats {
		fmt.Fprintf(o.w, "  - %s (%s): %d points\n", seat.Nickname, seat.PlayerID, seat.Score)
	}
	fmt.Fprintln(o.w)
	o.printBoard(s.Board)
}

// printBoard draws the grid with box separators. Givens are shown plainly;
// player entries are marked with a trailing '*'.
func (o *Output) printBoard(b response.Board) {
	if len(b.Rows) != model.BoardSize {
		return
	}

	fmt.Fprint(o.w, "    ")
	for col := range model.BoardSize {
		if col > 0 && col%model.BoxSize == 0 {
			fmt.Fprint(o.w, " ")
		}
		fmt.Fprintf(o.w, " %d ", col)
	}
	fmt.Fprintln(o.w)

	rule := "   +" + strings.Repeat(strings.Repeat("-", 3*model.BoxSize)+"+", model.BoxSize)
	for row := range model.BoardSize {
		if row%model.BoxSize == 0 {
			fmt.Fprintln(o.w, rule)
		}
		fmt.Fprintf(o.w, " %d |", row)
		for col := range model.BoardSize {
			cell := b.Rows[row][col]
			switch {
			case cell == '0':
				fmt.Fprint(o.w, " . ")
			case len(b.Givens) == model.BoardSize && b.Givens[row][col] == '1':
				fmt.Fprintf(o.w, " %c ", cell)
			default:
				fmt.Fprintf(o.w, " %c*", cell)
			}
			if (col+1)%model.BoxSize == 0 {
				fmt.Fprint(o.w, "|")
			}
		}
		fmt.Fprintln(o.w)
	}
	fmt.Fprintln(o.w, rule)
}

func (o *Output) printResults(results []response.GameResult) {
	if len(results) == 0 {
		fmt.Fprintln(o.w, "No finished games")
		return
	}
	for _, r := range results {
		winner := "tie"
		if r.Winner != nil {
			winner = *r.Winner
		}
		fmt.Fprintf(o.w, "%s  %s  winner: %s\n", r.CompletedAt.Format("2006-01-02 15:04"), r.GameID, winner)
		for _, st := range r.Standings {
			fmt.Fprintf(o.w, "  %d. %s %d\n", st.Rank, st.Nickname, st.Score)
		}
	}
}
