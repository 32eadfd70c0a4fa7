package line

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/competitive-sudoku-go/internal/api/response"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/services/dispatch"
	"github.com/mcoot/competitive-sudoku-go/internal/transport/status"
)

// DefaultIOTimeout bounds the read and write of a single exchange
const DefaultIOTimeout = 10 * time.Second

// Config configures the line server
type Config struct {
	Addr      string
	IOTimeout time.Duration
}

// Server answers line protocol requests, one goroutine per connection
type Server struct {
	cfg    Config
	svc    dispatch.Service
	logger *slog.Logger

	wg sync.WaitGroup
}

// NewServer creates a line protocol server
func NewServer(cfg Config, svc dispatch.Service, logger *slog.Logger) *Server {
	if cfg.IOTimeout <= 0 {
		cfg.IOTimeout = DefaultIOTimeout
	}
	return &Server{
		cfg:    cfg,
		svc:    svc,
		logger: logger.With(slog.String("transport", "line")),
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

// Serve accepts connections from ln until ctx is cancelled, then closes ln
// and waits for in-flight exchanges
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("line server listening", slog.String("addr", ln.Addr().String()))

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		ln.Close()
	}()

	defer s.wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.logger.Info("line server stopped")
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	logger := s.logger.With(slog.String("remote_addr", conn.RemoteAddr().String()))

	if err := conn.SetDeadline(time.Now().Add(s.cfg.IOTimeout)); err != nil {
		logger.Warn("failed to set deadline", slog.String("error", err.Error()))
		return
	}

	line, err := readRequest(conn)
	if err != nil {
		logger.Warn("failed to read request", slog.String("error", err.Error()))
		return
	}

	resp := s.respond(ctx, line, logger)
	if _, err := io.WriteString(conn, resp.Encode()); err != nil {
		logger.Warn("failed to write response", slog.String("error", err.Error()))
	}
}

// respond runs one request against the service
func (s *Server) respond(ctx context.Context, line string, logger *slog.Logger) Response {
	req, err := ParseRequest(line)
	if err != nil {
		return s.failure(err, logger)
	}
	logger.Debug("request", slog.String("header", string(req.Header)))

	payload, err := s.call(ctx, req)
	if err != nil {
		return s.failure(err, logger)
	}
	return Response{Status: status.OK, Payload: payload}
}

func (s *Server) call(ctx context.Context, req Request) (string, error) {
	f := req.Fields
	switch req.Header {
	case HeaderRegister:
		p, err := s.svc.Register(ctx, f[0])
		if err != nil {
			return "", err
		}
		return string(p.ID), nil

	case HeaderConnectCheck:
		return "", nil

	case HeaderListGames:
		list, err := s.svc.ListGames(ctx)
		if err != nil {
			return "", err
		}
		return encodeJSON(response.GameSummariesFromModel(list))

	case HeaderCreateGame:
		maxPlayers, err := req.Int(1)
		if err != nil {
			return "", err
		}
		snap, err := s.svc.CreateGame(ctx, model.PlayerID(f[0]), maxPlayers)
		if err != nil {
			return "", err
		}
		body, err := encodeJSON(response.GameSnapshotFromModel(snap))
		if err != nil {
			return "", err
		}
		return string(snap.GameID) + FieldSep + body, nil

	case HeaderJoinGame:
		return s.snapshot(s.svc.JoinGame(ctx, model.PlayerID(f[0]), model.GameID(f[1])))

	case HeaderMakeMove:
		var coords [3]int
		for i := range coords {
			n, err := req.Int(i + 2)
			if err != nil {
				return "", err
			}
			coords[i] = n
		}
		return s.snapshot(s.svc.MakeMove(ctx, model.PlayerID(f[0]), model.GameID(f[1]), coords[0], coords[1], coords[2]))

	case HeaderFetchState:
		return s.snapshot(s.svc.FetchState(ctx, model.GameID(f[0])))

	case HeaderQuitGame:
		return "", s.svc.QuitGame(ctx, model.PlayerID(f[0]), model.GameID(f[1]))

	case HeaderQuitServer:
		return "", s.svc.QuitServer(ctx, model.PlayerID(f[0]))
	}
	return "", fmt.Errorf("%w: unhandled header %q", model.ErrMalformedRequest, req.Header)
}

func (s *Server) snapshot(snap model.GameSnapshot, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return encodeJSON(response.GameSnapshotFromModel(snap))
}

func (s *Server) failure(err error, logger *slog.Logger) Response {
	code := status.FromError(err)
	if code == status.ConnectionError {
		logger.Error("request failed", slog.String("error", err.Error()))
	} else {
		logger.Debug("request rejected",
			slog.String("status", code.String()),
			slog.String("error", err.Error()),
		)
	}
	msg := strings.NewReplacer("\r", " ", "\n", " ").Replace(status.Message(err))
	return Response{Status: code, Payload: msg}
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}
	return string(b), nil
}

// readRequest treats a single read as the whole request. A terminator, if
// present, ends it early.
func readRequest(r io.Reader) (string, error) {
	buf := make([]byte, MaxLineLength)
	n, err := r.Read(buf)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}
	msg := string(buf[:n])
	if i := strings.Index(msg, Terminator); i >= 0 {
		msg = msg[:i]
	}
	return trimTerminator(msg), nil
}
