package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// Config holds CLI configuration
type Config struct {
	Server      string
	APIURL      string
	PlayerID    string
	SessionFile string
	Output      string
	Timeout     time.Duration
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Server:      getEnvOrDefault("SUDOKU_SERVER", "localhost:7000"),
		APIURL:      getEnvOrDefault("SUDOKU_API", "http://localhost:8080"),
		PlayerID:    os.Getenv("SUDOKU_PLAYER"),
		SessionFile: getEnvOrDefault("SUDOKU_SESSION_FILE", defaultSessionFile()),
		Output:      "text",
		Timeout:     10 * time.Second,
	}
}

// Session is what the CLI remembers between invocations
type Session struct {
	Server   string `yaml:"server"`
	PlayerID string `yaml:"player_id"`
	Nickname string `yaml:"nickname"`
	GameID   string `yaml:"game_id,omitempty"`
}

// LoadSession reads the session file. A missing file is an empty session.
func (c *Config) LoadSession() (Session, error) {
	var s Session
	data, err := os.ReadFile(c.SessionFile)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse session %s: %w", c.SessionFile, err)
	}
	return s, nil
}

// SaveSession writes the session file
func (c *Config) SaveSession(s Session) error {
	dir := filepath.Dir(c.SessionFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(c.SessionFile, data, 0600)
}

// ClearSession removes the session file
func (c *Config) ClearSession() error {
	if err := os.Remove(c.SessionFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Player returns the player id from --player, SUDOKU_PLAYER or the session
func (c *Config) Player(s Session) (model.PlayerID, error) {
	id := c.PlayerID
	if id == "" {
		id = s.PlayerID
	}
	if id == "" {
		return "", fmt.Errorf("%w: run 'sudoku register <nickname>' first", model.ErrNotRegistered)
	}
	return model.PlayerID(id), nil
}

// Game returns the explicit game id, falling back to the session's
func (c *Config) Game(s Session, explicit string) (model.GameID, error) {
	if explicit != "" {
		return model.GameID(explicit), nil
	}
	if s.GameID == "" {
		return "", errors.New("no current game: pass --game or create/join one")
	}
	return model.GameID(s.GameID), nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sudoku/session.yaml"
	}
	return filepath.Join(home, ".sudoku", "session.yaml")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
