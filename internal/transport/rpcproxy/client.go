package rpcproxy

import (
	"context"
	"errors"
	"io"
	"net"
	"net/rpc"
	"time"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/transport/status"
)

// Proxy is the client side of one RPC session. Errors unwrap to model
// sentinels through *status.Error.
type Proxy struct {
	client *rpc.Client
}

// Dial connects to an RPC server
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Proxy, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, status.Wrap(status.FromDialError(err), err)
	}
	return NewProxy(conn), nil
}

// NewProxy wraps an established connection
func NewProxy(conn io.ReadWriteCloser) *Proxy {
	return &Proxy{client: rpc.NewClient(conn)}
}

// Close ends the session. The server releases the player.
func (p *Proxy) Close() error {
	return p.client.Close()
}

// Register binds a player to this session
func (p *Proxy) Register(ctx context.Context, nickname string) (model.PlayerID, error) {
	var reply RegisterReply
	if err := p.call(ctx, "Register", &RegisterArgs{Nickname: nickname}, &reply); err != nil {
		return "", err
	}
	return reply.PlayerID, nil
}

// ListGames returns every room on the server
func (p *Proxy) ListGames(ctx context.Context) ([]model.GameSummary, error) {
	var reply GamesReply
	if err := p.call(ctx, "GetGamesList", &Empty{}, &reply); err != nil {
		return nil, err
	}
	return reply.Games, nil
}

// CreateGame opens a room and makes it the current game
func (p *Proxy) CreateGame(ctx context.Context, maxPlayers int) (model.GameSnapshot, error) {
	var reply SnapshotReply
	err := p.call(ctx, "CreateGame", &CreateArgs{MaxPlayers: maxPlayers}, &reply)
	return reply.Snapshot, err
}

// JoinGame takes a seat and makes the room the current game
func (p *Proxy) JoinGame(ctx context.Context, gameID model.GameID) (model.GameSnapshot, error) {
	var reply SnapshotReply
	err := p.call(ctx, "JoinGame", &JoinArgs{GameID: gameID}, &reply)
	return reply.Snapshot, err
}

// MakeMove guesses value at (x, y) in the current game
func (p *Proxy) MakeMove(ctx context.Context, x, y, value int) (model.GameSnapshot, error) {
	var reply SnapshotReply
	err := p.call(ctx, "MakeGuess", &MoveArgs{X: x, Y: y, Value: value}, &reply)
	return reply.Snapshot, err
}

// FetchState returns the current game's snapshot
func (p *Proxy) FetchState(ctx context.Context) (model.GameSnapshot, error) {
	var reply SnapshotReply
	err := p.call(ctx, "GetGameState", &Empty{}, &reply)
	return reply.Snapshot, err
}

// QuitGame leaves the current game
func (p *Proxy) QuitGame(ctx context.Context) error {
	return p.call(ctx, "QuitGame", &Empty{}, &Empty{})
}

// QuitServer unregisters the session's player
func (p *Proxy) QuitServer(ctx context.Context) error {
	return p.call(ctx, "QuitServer", &Empty{}, &Empty{})
}

func (p *Proxy) call(ctx context.Context, method string, args, reply any) error {
	call := p.client.Go(ServiceName+"."+method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-call.Done:
		return fromWire(call.Error)
	case <-ctx.Done():
		return status.Wrap(status.ConnectionError, ctx.Err())
	}
}

func fromWire(err error) error {
	if err == nil {
		return nil
	}
	var serverErr rpc.ServerError
	if errors.As(err, &serverErr) {
		if se, ok := status.Parse(string(serverErr)); ok {
			return se
		}
	}
	return status.Wrap(status.ConnectionError, err)
}
