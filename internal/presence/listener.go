package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

const (
	readTimeout = time.Second
	maxDatagram = 1024
)

// Listener collects advertisements from the group. The first datagram from
// an address wins; later ones for the same address are ignored.
type Listener struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.RWMutex
	servers []model.ServerInfo
	seen    map[string]struct{}
}

// NewListener creates a Listener
func NewListener(cfg Config, logger *slog.Logger) *Listener {
	return &Listener{
		cfg:    cfg.withDefaults(),
		logger: logger.With(slog.String("component", "presence")),
		seen:   make(map[string]struct{}),
	}
}

// Run joins the group and records advertisements until ctx is done. It
// notices cancellation within one read timeout.
func (l *Listener) Run(ctx context.Context) error {
	conn, err := net.ListenPacket("udp4", net.JoinHostPort("0.0.0.0", strconv.Itoa(l.cfg.Port)))
	if err != nil {
		return fmt.Errorf("opening presence socket: %w", err)
	}
	defer conn.Close()

	pc := ipv4.NewPacketConn(conn)
	group := &net.UDPAddr{IP: net.ParseIP(l.cfg.Group)}
	if group.IP == nil {
		return fmt.Errorf("invalid presence group %q", l.cfg.Group)
	}
	if err := l.join(pc, group); err != nil {
		return err
	}

	buf := make([]byte, maxDatagram)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := pc.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return fmt.Errorf("setting read deadline: %w", err)
		}

		n, _, src, err := pc.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading presence datagram: %w", err)
		}
		l.Observe(string(buf[:n]), src)
	}
}

// join subscribes on every multicast-capable interface, falling back to the
// system default
func (l *Listener) join(pc *ipv4.PacketConn, group net.Addr) error {
	joined := 0
	ifaces, _ := net.Interfaces()
	for i := range ifaces {
		ifi := &ifaces[i]
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagMulticast == 0 {
			continue
		}
		if err := pc.JoinGroup(ifi, group); err == nil {
			joined++
		}
	}
	if joined > 0 {
		return nil
	}
	if err := pc.JoinGroup(nil, group); err != nil {
		return fmt.Errorf("joining presence group: %w", err)
	}
	return nil
}

// Observe records one datagram received from src. It reports whether a new
// server was added. An advertised address with no host takes the sender's.
func (l *Listener) Observe(datagram string, src net.Addr) bool {
	info, err := Parse(datagram)
	if err != nil {
		l.logger.Debug("ignoring datagram", slog.String("error", err.Error()))
		return false
	}
	info.Address = fillHost(info.Address, src)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[info.Address]; ok {
		return false
	}
	l.seen[info.Address] = struct{}{}
	l.servers = append(l.servers, info)

	l.logger.Info("server discovered",
		slog.String("address", info.Address),
		slog.String("name", info.Name),
	)
	return true
}

// Servers returns the servers seen so far in discovery order
func (l *Listener) Servers() []model.ServerInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.ServerInfo, len(l.servers))
	copy(out, l.servers)
	return out
}

// Discover listens for wait and returns what it heard
func Discover(ctx context.Context, cfg Config, wait time.Duration, logger *slog.Logger) ([]model.ServerInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	l := NewListener(cfg, logger)
	if err := l.Run(ctx); err != nil {
		return nil, err
	}
	return l.Servers(), nil
}

func fillHost(address string, src net.Addr) string {
	host, port, err := net.SplitHostPort(address)
	if err != nil || src == nil {
		return address
	}
	if ip := net.ParseIP(host); host != "" && (ip == nil || !ip.IsUnspecified()) {
		return address
	}
	srcHost, _, err := net.SplitHostPort(src.String())
	if err != nil {
		return address
	}
	return net.JoinHostPort(srcHost, port)
}
