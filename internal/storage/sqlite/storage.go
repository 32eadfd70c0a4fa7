package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/storage"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// New opens (or creates) the database at path and runs migrations
func New(path string) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == MemoryPath {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Ensure Storage implements the interface
var _ storage.ResultStore = (*Storage)(nil)

func (s *Storage) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			game_id        TEXT PRIMARY KEY,
			winner         TEXT NOT NULL DEFAULT '',
			completed_at   INTEGER NOT NULL,
			standings_json TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_results_completed_at ON results(completed_at DESC);
	`)
	return err
}

func (s *Storage) SaveResult(ctx context.Context, result *model.GameResult) error {
	standings, err := json.Marshal(result.Standings)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (game_id, winner, completed_at, standings_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			winner = excluded.winner,
			completed_at = excluded.completed_at,
			standings_json = excluded.standings_json`,
		string(result.GameID), string(result.Winner), result.CompletedAt.UnixNano(), string(standings),
	)
	return err
}

func (s *Storage) GetResult(ctx context.Context, id model.GameID) (*model.GameResult, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT game_id, winner, completed_at, standings_json FROM results WHERE game_id = ?",
		string(id),
	)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrResultNotFound
	}
	return r, err
}

func (s *Storage) ListResults(ctx context.Context, limit int) ([]*model.GameResult, error) {
	if limit <= 0 {
		// SQLite treats a negative LIMIT as no limit
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_id, winner, completed_at, standings_json FROM results
		ORDER BY completed_at DESC, game_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.GameResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (*model.GameResult, error) {
	var (
		gameID, winner, standings string
		completedAt               int64
	)
	if err := row.Scan(&gameID, &winner, &completedAt, &standings); err != nil {
		return nil, err
	}

	r := &model.GameResult{
		GameID:      model.GameID(gameID),
		Winner:      model.PlayerID(winner),
		CompletedAt: time.Unix(0, completedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(standings), &r.Standings); err != nil {
		return nil, fmt.Errorf("decode standings for %s: %w", gameID, err)
	}
	return r, nil
}
