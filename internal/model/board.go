package model

// BoardSize is the width and height of a Sudoku grid
const BoardSize = 9

// BoxSize is the width and height of one Sudoku box
const BoxSize = 3

// MaxCellValue is the largest digit a cell can hold. Zero means empty.
const MaxCellValue = 9

// Position identifies a cell. X selects the row and Y the column.
type Position struct {
	X int
	Y int
}

// InBounds reports whether the position lies on the grid
func (p Position) InBounds() bool {
	return p.X >= 0 && p.X < BoardSize && p.Y >= 0 && p.Y < BoardSize
}

// Board is a 9x9 Sudoku grid. Mask marks the puzzle's given cells, which
// players can never overwrite.
type Board struct {
	Cells [BoardSize][BoardSize]int
	Mask  [BoardSize][BoardSize]bool
}

// BoardFromGrid builds a board from a grid of givens. Every non-zero cell is
// masked.
func BoardFromGrid(grid [BoardSize][BoardSize]int) Board {
	var b Board
	b.Cells = grid
	for x := range BoardSize {
		for y := range BoardSize {
			b.Mask[x][y] = grid[x][y] != 0
		}
	}
	return b
}

// Get returns the value at pos, or 0 if pos is off the grid
func (b Board) Get(pos Position) int {
	if !pos.InBounds() {
		return 0
	}
	return b.Cells[pos.X][pos.Y]
}

// Locked reports whether the cell at pos is a given
func (b Board) Locked(pos Position) bool {
	if !pos.InBounds() {
		return false
	}
	return b.Mask[pos.X][pos.Y]
}

// Set writes value at pos. Callers check bounds and the mask first.
func (b *Board) Set(pos Position, value int) {
	b.Cells[pos.X][pos.Y] = value
}

// Clone returns a deep copy of the board
func (b Board) Clone() Board {
	// arrays copy by value
	return b
}

// EmptyCount returns the number of cells still holding 0
func (b Board) EmptyCount() int {
	n := 0
	for x := range BoardSize {
		for y := range BoardSize {
			if b.Cells[x][y] == 0 {
				n++
			}
		}
	}
	return n
}

// IsFull reports whether every cell holds a digit
func (b Board) IsFull() bool {
	return b.EmptyCount() == 0
}

// Valid reports whether no row, column or box repeats a non-zero digit.
// Empty cells are ignored.
func (b Board) Valid() bool {
	for i := range BoardSize {
		var row, col, box [MaxCellValue + 1]bool
		for j := range BoardSize {
			if !markSeen(&row, b.Cells[i][j]) {
				return false
			}
			if !markSeen(&col, b.Cells[j][i]) {
				return false
			}
			bx := (i/BoxSize)*BoxSize + j/BoxSize
			by := (i%BoxSize)*BoxSize + j%BoxSize
			if !markSeen(&box, b.Cells[bx][by]) {
				return false
			}
		}
	}
	return true
}

// Solved reports whether the board is completely and correctly filled
func (b Board) Solved() bool {
	return b.IsFull() && b.Valid()
}

func markSeen(seen *[MaxCellValue + 1]bool, v int) bool {
	if v == 0 {
		return true
	}
	if v < 0 || v > MaxCellValue || seen[v] {
		return false
	}
	seen[v] = true
	return true
}
