package board

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/competitive-sudoku-go/internal/dependencies/random"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// builtinPuzzles ship with the server so it can run without a catalogue file
var builtinPuzzles = []PuzzleEntry{
	{Name: "classic", Grid: "53..7....6..195....98....6.8...6...34..8.3..17...2...6.6....28....419..5....8..79"},
	{Name: "euler-01", Grid: "..3.2.6..9..3.5..1..18.64....81.29..7.......8..67.82....26.95..8..2.3..9..5.1.3.."},
	{Name: "euler-02", Grid: "2...8.3...6..7..84.3.5..2.9...1.54.8.........4.27.6...3.1..7.4.72..4..6...4.1...3"},
}

// PuzzleEntry is a puzzle as written in a catalogue file. Grid holds 81
// characters in row-major order, with '.' or '0' for empty cells.
type PuzzleEntry struct {
	Name string `yaml:"name"`
	Grid string `yaml:"grid"`
}

// catalogFile is the on-disk layout of a puzzle catalogue
type catalogFile struct {
	Puzzles []PuzzleEntry `yaml:"puzzles"`
}

// Puzzle is a parsed catalogue entry
type Puzzle struct {
	Name  string
	Board model.Board
}

// Catalog serves puzzles chosen uniformly at random
type Catalog struct {
	random random.Random
	logger *slog.Logger

	mu      sync.RWMutex
	puzzles []Puzzle
}

// NewCatalog creates a Catalog preloaded with the built-in puzzles
func NewCatalog(rnd random.Random, logger *slog.Logger) *Catalog {
	c := &Catalog{random: rnd, logger: logger}
	if err := c.LoadPuzzles(builtinPuzzles); err != nil {
		// built-in puzzles are checked by tests
		panic(err)
	}
	return c
}

var _ Provider = (*Catalog)(nil)

// LoadFromFile replaces the catalogue with the puzzles in a YAML file
func (c *Catalog) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading puzzle catalogue: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing puzzle catalogue %s: %w", path, err)
	}

	if err := c.LoadPuzzles(file.Puzzles); err != nil {
		return err
	}

	c.logger.Info("loaded puzzle catalogue",
		slog.String("path", path),
		slog.Int("puzzles", len(file.Puzzles)),
	)
	return nil
}

// LoadPuzzles replaces the catalogue. Nothing changes if any puzzle is
// invalid.
func (c *Catalog) LoadPuzzles(entries []PuzzleEntry) error {
	if len(entries) == 0 {
		return model.ErrNoPuzzles
	}

	puzzles := make([]Puzzle, 0, len(entries))
	for i, entry := range entries {
		b, err := ParseGrid(entry.Grid)
		if err != nil {
			return fmt.Errorf("puzzle %d (%s): %w", i, entry.Name, err)
		}
		puzzles = append(puzzles, Puzzle{Name: entry.Name, Board: b})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.puzzles = puzzles
	return nil
}

// Next returns a copy of a randomly chosen puzzle
func (c *Catalog) Next(ctx context.Context) (model.Board, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.puzzles) == 0 {
		return model.Board{}, model.ErrNoPuzzles
	}
	p := c.puzzles[c.random.Intn(len(c.puzzles))]
	return p.Board.Clone(), nil
}

// Count returns the number of puzzles in the catalogue
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.puzzles)
}

// ParseGrid parses an 81-character puzzle. Givens become masked cells.
// Whitespace is ignored so grids may be split across lines.
func ParseGrid(grid string) (model.Board, error) {
	grid = strings.Join(strings.Fields(grid), "")
	if len(grid) != model.BoardSize*model.BoardSize {
		return model.Board{}, fmt.Errorf("%w: want %d cells, got %d",
			model.ErrInvalidPuzzle, model.BoardSize*model.BoardSize, len(grid))
	}

	var cells [model.BoardSize][model.BoardSize]int
	for i, ch := range []byte(grid) {
		x, y := i/model.BoardSize, i%model.BoardSize
		switch {
		case ch == '.' || ch == '0':
			cells[x][y] = 0
		case ch >= '1' && ch <= '9':
			cells[x][y] = int(ch - '0')
		default:
			return model.Board{}, fmt.Errorf("%w: unexpected %q at cell %d", model.ErrInvalidPuzzle, ch, i)
		}
	}

	b := model.BoardFromGrid(cells)
	if !b.Valid() {
		return model.Board{}, fmt.Errorf("%w: givens repeat a digit", model.ErrInvalidPuzzle)
	}
	if b.IsFull() {
		return model.Board{}, fmt.Errorf("%w: no empty cells", model.ErrInvalidPuzzle)
	}
	return b, nil
}
