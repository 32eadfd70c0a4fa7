package presence

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// Broadcaster periodically announces one server to the group
type Broadcaster struct {
	cfg     Config
	address string
	name    string
	hint    func() int
	logger  *slog.Logger
}

// NewBroadcaster creates a Broadcaster for the server at address. hint
// supplies the open room count for each datagram; nil sends none. An address
// or name that cannot travel in a datagram is rejected with ErrBadField.
func NewBroadcaster(cfg Config, address, name string, hint func() int, logger *slog.Logger) (*Broadcaster, error) {
	if address == "" || !validField(address) {
		return nil, fmt.Errorf("%w: address %q", ErrBadField, address)
	}
	if !validField(name) {
		return nil, fmt.Errorf("%w: name %q", ErrBadField, name)
	}
	return &Broadcaster{
		cfg:     cfg.withDefaults(),
		address: address,
		name:    name,
		hint:    hint,
		logger:  logger.With(slog.String("component", "presence")),
	}, nil
}

// Run sends one datagram immediately and then one per interval until ctx is
// done. Failed sends are logged and retried on the next tick.
func (b *Broadcaster) Run(ctx context.Context) error {
	conn, err := net.ListenPacket("udp4", "0.0.0.0:0")
	if err != nil {
		return fmt.Errorf("opening presence socket: %w", err)
	}
	defer conn.Close()

	pc := ipv4.NewPacketConn(conn)
	if err := pc.SetMulticastTTL(b.cfg.TTL); err != nil {
		return fmt.Errorf("setting multicast ttl: %w", err)
	}
	if err := pc.SetMulticastLoopback(true); err != nil {
		b.logger.Warn("multicast loopback unavailable", slog.String("error", err.Error()))
	}

	dst, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(b.cfg.Group, strconv.Itoa(b.cfg.Port)))
	if err != nil {
		return fmt.Errorf("resolving presence group: %w", err)
	}

	b.logger.Info("presence broadcasting",
		slog.String("group", dst.String()),
		slog.String("address", b.address),
		slog.String("name", b.name),
	)

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()
	for {
		b.send(pc, dst)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (b *Broadcaster) send(pc *ipv4.PacketConn, dst net.Addr) {
	if _, err := pc.WriteTo([]byte(Encode(b.info())), nil, dst); err != nil {
		b.logger.Warn("presence send failed", slog.String("error", err.Error()))
	}
}

func (b *Broadcaster) info() model.ServerInfo {
	info := model.ServerInfo{Address: b.address, Name: b.name, OpenGames: -1}
	if b.hint != nil {
		info.OpenGames = b.hint()
	}
	return info
}
