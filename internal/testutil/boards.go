package testutil

import "github.com/mcoot/competitive-sudoku-go/internal/model"

var solved = [model.BoardSize][model.BoardSize]int{
	{5, 3, 4, 6, 7, 8, 9, 1, 2},
	{6, 7, 2, 1, 9, 5, 3, 4, 8},
	{1, 9, 8, 3, 4, 2, 5, 6, 7},
	{8, 5, 9, 7, 6, 1, 4, 2, 3},
	{4, 2, 6, 8, 5, 3, 7, 9, 1},
	{7, 1, 3, 9, 2, 4, 8, 5, 6},
	{9, 6, 1, 5, 3, 7, 2, 8, 4},
	{2, 8, 7, 4, 1, 9, 6, 3, 5},
	{3, 4, 5, 2, 8, 6, 1, 7, 9},
}

// SolvedGrid returns a completely and correctly filled grid
func SolvedGrid() [model.BoardSize][model.BoardSize]int {
	return solved
}

// SolvedValue returns the correct digit for pos in SolvedGrid
func SolvedValue(pos model.Position) int {
	return solved[pos.X][pos.Y]
}

// PuzzleGrid returns SolvedGrid with the given cells blanked
func PuzzleGrid(blanks ...model.Position) [model.BoardSize][model.BoardSize]int {
	grid := solved
	for _, p := range blanks {
		grid[p.X][p.Y] = 0
	}
	return grid
}

// PuzzleString renders a grid as 81 characters with '.' for empty cells
func PuzzleString(grid [model.BoardSize][model.BoardSize]int) string {
	out := make([]byte, 0, model.BoardSize*model.BoardSize)
	for x := range model.BoardSize {
		for y := range model.BoardSize {
			if grid[x][y] == 0 {
				out = append(out, '.')
			} else {
				out = append(out, byte('0'+grid[x][y]))
			}
		}
	}
	return string(out)
}
