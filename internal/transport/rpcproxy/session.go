package rpcproxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/services/dispatch"
	"github.com/mcoot/competitive-sudoku-go/internal/transport/status"
)

// Session is the per-connection receiver. Its exported methods are exactly
// the remote calls.
type Session struct {
	ctx    context.Context
	svc    dispatch.Service
	logger *slog.Logger

	mu     sync.Mutex
	player model.PlayerID
	game   model.GameID
}

func newSession(ctx context.Context, svc dispatch.Service, logger *slog.Logger) *Session {
	return &Session{ctx: ctx, svc: svc, logger: logger}
}

// Register binds a new player to the connection. It must be the first call.
func (s *Session) Register(args *RegisterArgs, reply *RegisterReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player != "" {
		return s.fail(fmt.Errorf("%w: connection already registered as %s", model.ErrMalformedRequest, s.player))
	}
	p, err := s.svc.Register(s.ctx, args.Nickname)
	if err != nil {
		return s.fail(err)
	}
	s.player = p.ID
	s.logger.Debug("rpc session registered", slog.String("player_id", string(p.ID)))
	reply.PlayerID = p.ID
	return nil
}

func (s *Session) GetGamesList(_ *Empty, reply *GamesReply) error {
	if _, err := s.identity(); err != nil {
		return s.fail(err)
	}
	games, err := s.svc.ListGames(s.ctx)
	if err != nil {
		return s.fail(err)
	}
	reply.Games = games
	return nil
}

// CreateGame opens a room and makes it the session's current game
func (s *Session) CreateGame(args *CreateArgs, reply *SnapshotReply) error {
	id, err := s.identity()
	if err != nil {
		return s.fail(err)
	}
	snap, err := s.svc.CreateGame(s.ctx, id, args.MaxPlayers)
	if err != nil {
		return s.fail(err)
	}
	s.setGame(snap.GameID)
	reply.Snapshot = snap
	return nil
}

// JoinGame takes a seat and makes the room the session's current game
func (s *Session) JoinGame(args *JoinArgs, reply *SnapshotReply) error {
	id, err := s.identity()
	if err != nil {
		return s.fail(err)
	}
	snap, err := s.svc.JoinGame(s.ctx, id, args.GameID)
	if err != nil {
		return s.fail(err)
	}
	s.setGame(snap.GameID)
	reply.Snapshot = snap
	return nil
}

func (s *Session) MakeGuess(args *MoveArgs, reply *SnapshotReply) error {
	id, gameID, err := s.current()
	if err != nil {
		return s.fail(err)
	}
	snap, err := s.svc.MakeMove(s.ctx, id, gameID, args.X, args.Y, args.Value)
	if err != nil {
		return s.fail(err)
	}
	reply.Snapshot = snap
	return nil
}

func (s *Session) GetGameState(_ *Empty, reply *SnapshotReply) error {
	_, gameID, err := s.current()
	if err != nil {
		return s.fail(err)
	}
	snap, err := s.svc.FetchState(s.ctx, gameID)
	if err != nil {
		return s.fail(err)
	}
	reply.Snapshot = snap
	return nil
}

// QuitGame leaves the current game
func (s *Session) QuitGame(_ *Empty, _ *Empty) error {
	id, gameID, err := s.current()
	if err != nil {
		return s.fail(err)
	}
	if err := s.svc.QuitGame(s.ctx, id, gameID); err != nil && !errors.Is(err, model.ErrGameNotFound) {
		return s.fail(err)
	}
	s.setGame("")
	return nil
}

// QuitServer unregisters the connection's player. The connection may
// register again afterwards.
func (s *Session) QuitServer(_ *Empty, _ *Empty) error {
	if _, err := s.identity(); err != nil {
		return s.fail(err)
	}
	if err := s.release(); err != nil {
		return s.fail(err)
	}
	return nil
}

// release quits the bound player, if any, and clears the binding
func (s *Session) release() error {
	s.mu.Lock()
	id := s.player
	s.player, s.game = "", ""
	s.mu.Unlock()

	if id == "" {
		return nil
	}
	return s.svc.QuitServer(s.ctx, id)
}

func (s *Session) identity() (model.PlayerID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == "" {
		return "", model.ErrNotRegistered
	}
	return s.player, nil
}

func (s *Session) current() (model.PlayerID, model.GameID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == "" {
		return "", "", model.ErrNotRegistered
	}
	if s.game == "" {
		return "", "", model.ErrNoCurrentGame
	}
	return s.player, s.game, nil
}

func (s *Session) setGame(id model.GameID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game = id
}

// fail renders err in the "<status>: <message>" wire form
func (s *Session) fail(err error) error {
	code := status.FromError(err)
	if code == status.ConnectionError {
		s.logger.Error("rpc call failed", slog.String("error", err.Error()))
	}
	msg := strings.ReplaceAll(status.Message(err), "\n", " ")
	return errors.New(status.New(code, msg).Error())
}
