package redis

import (
	"fmt"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "sudoku"

// resultKey returns the Redis key for a GameResult
func resultKey(id model.GameID) string {
	return fmt.Sprintf("%s:result:%s", keyPrefix, id)
}

// resultsIndexKey returns the Redis key for the ZSET of results scored by
// completion time
func resultsIndexKey() string {
	return fmt.Sprintf("%s:idx:results", keyPrefix)
}
