package rpcproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/rpc"
	"sync"

	"github.com/mcoot/competitive-sudoku-go/internal/services/dispatch"
)

// Config configures the RPC server
type Config struct {
	Addr string
}

// Server accepts RPC connections and gives each one its own session
type Server struct {
	cfg    Config
	svc    dispatch.Service
	logger *slog.Logger

	wg    sync.WaitGroup
	mu    sync.Mutex
	conns map[io.Closer]struct{}
}

// NewServer creates an RPC server
func NewServer(cfg Config, svc dispatch.Service, logger *slog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		svc:    svc,
		logger: logger.With(slog.String("transport", "rpc")),
		conns:  make(map[io.Closer]struct{}),
	}
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections until ctx is cancelled. Open connections are
// closed on the way out, which releases their players.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("rpc server listening", slog.String("addr", ln.Addr().String()))

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		ln.Close()
		s.closeAll()
	}()

	defer s.wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.logger.Info("rpc server stopped")
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(ctx, conn)
		}()
	}
}

// ServeConn runs one session on conn and blocks until the peer hangs up.
// The session's player, if still registered, then quits the server.
func (s *Server) ServeConn(ctx context.Context, conn io.ReadWriteCloser) {
	logger := s.logger
	if nc, ok := conn.(net.Conn); ok {
		logger = logger.With(slog.String("remote_addr", nc.RemoteAddr().String()))
	}

	if !s.track(conn) {
		conn.Close()
		return
	}
	defer s.untrack(conn)

	session := newSession(context.WithoutCancel(ctx), s.svc, logger)
	srv := rpc.NewServer()
	if err := srv.RegisterName(ServiceName, session); err != nil {
		logger.Error("failed to register rpc session", slog.String("error", err.Error()))
		conn.Close()
		return
	}

	logger.Debug("rpc connection opened")
	srv.ServeConn(conn)

	if err := session.release(); err != nil {
		logger.Warn("failed to release player after disconnect", slog.String("error", err.Error()))
	}
	logger.Debug("rpc connection closed")
}

// track returns false once the server has begun shutting down
func (s *Server) track(c io.Closer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c io.Closer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.Close()
	}
	s.conns = nil
}
