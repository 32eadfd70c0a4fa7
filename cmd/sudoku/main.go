package main

import "github.com/mcoot/competitive-sudoku-go/internal/cli"

func main() {
	cli.Execute()
}
