package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable holding a config path
const EnvPath = "SUDOKU_CONFIG"

// FileName is the config file looked for in the working and home directories
const FileName = "sudokud.yaml"

// Load reads configuration over the defaults.
// Search order: customPath -> $SUDOKU_CONFIG -> ./sudokud.yaml ->
// ~/.sudoku/sudokud.yaml -> defaults. An explicit path that cannot be read
// is an error; missing implicit files are skipped.
func Load(customPath string) (Config, error) {
	if customPath != "" {
		return loadFile(customPath)
	}
	if envPath := os.Getenv(EnvPath); envPath != "" {
		return loadFile(envPath)
	}

	for _, path := range []string{FileName, userConfigPath()} {
		if path == "" {
			continue
		}
		cfg, err := loadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}

	return Default(), nil
}

// Parse reads YAML over the defaults
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

// userConfigPath returns ~/.sudoku/sudokud.yaml, or empty if home is unavailable
func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sudoku", FileName)
}
