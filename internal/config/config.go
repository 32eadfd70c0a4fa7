// Package config loads sudokud settings from YAML.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/mcoot/competitive-sudoku-go/internal/logging"
	"github.com/mcoot/competitive-sudoku-go/internal/presence"
	"github.com/mcoot/competitive-sudoku-go/internal/services/lobby"
	"github.com/mcoot/competitive-sudoku-go/internal/services/scoring"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid config")

// Storage types
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSqlite = "sqlite"
)

// Config is the full server configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Line     LineConfig     `yaml:"line"`
	RPC      RPCConfig      `yaml:"rpc"`
	HTTP     HTTPConfig     `yaml:"http"`
	Presence PresenceConfig `yaml:"presence"`
	Lobby    LobbyConfig    `yaml:"lobby"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Puzzles  PuzzlesConfig  `yaml:"puzzles"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      logging.Config `yaml:"log"`

	// Source is the file the config was read from, empty for defaults
	Source string `yaml:"-"`
}

// ServerConfig names this server on the network
type ServerConfig struct {
	Name string `yaml:"name"`
	// Advertise is the address sent in presence datagrams. Empty means the
	// line listener address; listeners fill in a missing host themselves.
	Advertise string `yaml:"advertise"`
}

// LineConfig configures the line protocol listener
type LineConfig struct {
	Addr      string        `yaml:"addr"`
	IOTimeout time.Duration `yaml:"io_timeout"`
}

// RPCConfig configures the RPC listener
type RPCConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// HTTPConfig configures the JSON API
type HTTPConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// PresenceConfig configures multicast advertisement
type PresenceConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Group    string        `yaml:"group"`
	Port     int           `yaml:"port"`
	Interval time.Duration `yaml:"interval"`
	TTL      int           `yaml:"ttl"`
}

// LobbyConfig holds room and registration limits
type LobbyConfig struct {
	MaxPlayersLimit          int  `yaml:"max_players_limit"`
	RejectDuplicateNicknames bool `yaml:"reject_duplicate_nicknames"`
}

// ScoringConfig picks the completion credit policy
type ScoringConfig struct {
	Policy string `yaml:"policy"`
	Points int    `yaml:"points"`
}

// PuzzlesConfig points at an optional puzzle catalogue
type PuzzlesConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig selects the results ledger
type StorageConfig struct {
	Type   string       `yaml:"type"`
	Redis  RedisConfig  `yaml:"redis"`
	Sqlite SqliteConfig `yaml:"sqlite"`
}

// RedisConfig configures the redis ledger
type RedisConfig struct {
	URL       string        `yaml:"url"`
	ResultTTL time.Duration `yaml:"result_ttl"`
}

// SqliteConfig configures the sqlite ledger
type SqliteConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration
func Default() Config {
	p := presence.DefaultConfig()
	return Config{
		Server: ServerConfig{Name: "sudoku"},
		Line:   LineConfig{Addr: ":7000", IOTimeout: 10 * time.Second},
		RPC:    RPCConfig{Enabled: true, Addr: ":7777"},
		HTTP: HTTPConfig{
			Enabled:         true,
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Presence: PresenceConfig{
			Enabled:  true,
			Group:    p.Group,
			Port:     p.Port,
			Interval: p.Interval,
			TTL:      p.TTL,
		},
		Lobby:   LobbyConfig{MaxPlayersLimit: lobby.DefaultMaxPlayersLimit},
		Scoring: ScoringConfig{Policy: scoring.PolicyFixed, Points: scoring.DefaultCompletionPoints},
		Storage: StorageConfig{
			Type:   StorageMemory,
			Redis:  RedisConfig{URL: "redis://localhost:6379", ResultTTL: 7 * 24 * time.Hour},
			Sqlite: SqliteConfig{Path: "sudoku.db"},
		},
		Log: logging.DefaultConfig(),
	}
}

// AdvertiseAddress is the address other machines should dial
func (c Config) AdvertiseAddress() string {
	if c.Server.Advertise != "" {
		return c.Server.Advertise
	}
	return c.Line.Addr
}

// PresenceGroup converts the presence section
func (c Config) PresenceGroup() presence.Config {
	return presence.Config{
		Group:    c.Presence.Group,
		Port:     c.Presence.Port,
		Interval: c.Presence.Interval,
		TTL:      c.Presence.TTL,
	}
}

// Validate checks every section and returns the first problem found
func (c Config) Validate() error {
	if c.Server.Name == "" {
		return fmt.Errorf("%w: server.name is required", ErrInvalid)
	}
	// Names travel in ';' separated datagrams and cannot be escaped.
	if strings.ContainsAny(c.Server.Name, ";\r\n") {
		return fmt.Errorf("%w: server.name may not contain ';' or newlines", ErrInvalid)
	}
	if strings.Contains(c.Server.Advertise, ";") {
		return fmt.Errorf("%w: server.advertise may not contain ';'", ErrInvalid)
	}

	if err := validAddr("line.addr", c.Line.Addr); err != nil {
		return err
	}
	if c.Line.IOTimeout <= 0 {
		return fmt.Errorf("%w: line.io_timeout must be positive", ErrInvalid)
	}
	if c.RPC.Enabled {
		if err := validAddr("rpc.addr", c.RPC.Addr); err != nil {
			return err
		}
	}
	if c.HTTP.Enabled {
		if err := validAddr("http.addr", c.HTTP.Addr); err != nil {
			return err
		}
	}

	if c.Presence.Enabled {
		ip := net.ParseIP(c.Presence.Group)
		if ip == nil || ip.To4() == nil || !ip.IsMulticast() {
			return fmt.Errorf("%w: presence.group %q is not an IPv4 multicast address", ErrInvalid, c.Presence.Group)
		}
		if c.Presence.Port <= 0 || c.Presence.Port > 65535 {
			return fmt.Errorf("%w: presence.port %d out of range", ErrInvalid, c.Presence.Port)
		}
		if c.Presence.Interval <= 0 {
			return fmt.Errorf("%w: presence.interval must be positive", ErrInvalid)
		}
		if c.Presence.TTL < 1 || c.Presence.TTL > 255 {
			return fmt.Errorf("%w: presence.ttl must be 1-255", ErrInvalid)
		}
	}

	if c.Lobby.MaxPlayersLimit < 1 {
		return fmt.Errorf("%w: lobby.max_players_limit must be at least 1", ErrInvalid)
	}
	if _, err := scoring.FromName(c.Scoring.Policy, c.Scoring.Points); err != nil {
		return fmt.Errorf("%w: scoring: %w", ErrInvalid, err)
	}

	switch c.Storage.Type {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.Redis.URL == "" {
			return fmt.Errorf("%w: storage.redis.url is required", ErrInvalid)
		}
	case StorageSqlite:
		if c.Storage.Sqlite.Path == "" {
			return fmt.Errorf("%w: storage.sqlite.path is required", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown storage.type %q", ErrInvalid, c.Storage.Type)
	}

	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("%w: log: %w", ErrInvalid, err)
	}
	return nil
}

func validAddr(field, addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%w: %s %q: %w", ErrInvalid, field, addr, err)
	}
	return nil
}
