package factory

import (
	"time"

	"github.com/mcoot/competitive-sudoku-go/internal/dependencies/mocks"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/services/board"
	"github.com/mcoot/competitive-sudoku-go/internal/services/lobby"
	"github.com/mcoot/competitive-sudoku-go/internal/services/player"
	"github.com/mcoot/competitive-sudoku-go/internal/storage/memory"
	"github.com/mcoot/competitive-sudoku-go/internal/testutil"
)

// TestBlanks are the empty cells of every TestApp board. Filling both with
// testutil.SolvedValue completes a game.
var TestBlanks = []model.Position{{X: 0, Y: 0}, {X: 8, Y: 8}}

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(dependencies{
		results: store,
		clock:   mockClock,
		random:  mockRandom,
		boards:  board.Static{Board: model.BoardFromGrid(testutil.PuzzleGrid(TestBlanks...))},
		player:  player.Config{},
		lobby:   lobby.DefaultConfig(),
		logger:  testutil.NopLogger(),
	})

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}
