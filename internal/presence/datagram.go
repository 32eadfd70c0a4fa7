// Package presence advertises a server on a multicast group and collects the
// advertisements of others.
package presence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// Prefix opens every presence datagram
const Prefix = "SERVERADDR"

const fieldSep = ";"

// Defaults for the presence group
const (
	DefaultGroup    = "239.1.1.1"
	DefaultPort     = 7778
	DefaultInterval = time.Second
	DefaultTTL      = 1
)

var (
	// ErrBadDatagram is returned for datagrams that are not presence messages
	ErrBadDatagram = errors.New("not a presence datagram")
	// ErrBadField is returned for an address or name containing a separator
	ErrBadField = errors.New("field cannot be advertised")
)

// Config holds the multicast group settings shared by broadcaster and
// listener
type Config struct {
	Group    string
	Port     int
	Interval time.Duration
	TTL      int
}

// DefaultConfig returns the standard presence group
func DefaultConfig() Config {
	return Config{
		Group:    DefaultGroup,
		Port:     DefaultPort,
		Interval: DefaultInterval,
		TTL:      DefaultTTL,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Group == "" {
		c.Group = d.Group
	}
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.TTL <= 0 {
		c.TTL = d.TTL
	}
	return c
}

// validField reports whether s survives Encode and Parse unchanged
func validField(s string) bool {
	return !strings.ContainsAny(s, fieldSep+"\x00\r\n")
}

// Encode renders an advertisement. A negative OpenGames omits the hint.
func Encode(info model.ServerInfo) string {
	var b strings.Builder
	b.WriteString(Prefix)
	b.WriteString(fieldSep)
	b.WriteString(info.Address)
	b.WriteString(fieldSep)
	b.WriteString(info.Name)
	b.WriteString(fieldSep)
	if info.OpenGames >= 0 {
		b.WriteString(strconv.Itoa(info.OpenGames))
		b.WriteString(fieldSep)
	}
	return b.String()
}

// Parse reads an advertisement in either the three or four field form
func Parse(datagram string) (model.ServerInfo, error) {
	fields := strings.Split(strings.TrimRight(datagram, "\x00\r\n"), fieldSep)
	// A trailing separator leaves one empty field.
	if n := len(fields); n > 0 && fields[n-1] == "" {
		fields = fields[:n-1]
	}
	if len(fields) < 3 || len(fields) > 4 || fields[0] != Prefix {
		return model.ServerInfo{}, ErrBadDatagram
	}
	if fields[1] == "" {
		return model.ServerInfo{}, fmt.Errorf("%w: empty address", ErrBadDatagram)
	}

	info := model.ServerInfo{Address: fields[1], Name: fields[2], OpenGames: -1}
	if len(fields) == 4 {
		n, err := strconv.Atoi(fields[3])
		if err != nil || n < 0 {
			return model.ServerInfo{}, fmt.Errorf("%w: bad occupancy %q", ErrBadDatagram, fields[3])
		}
		info.OpenGames = n
	}
	return info, nil
}
