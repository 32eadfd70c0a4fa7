package line

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/competitive-sudoku-go/internal/api/response"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/transport/status"
)

// DefaultDialTimeout bounds connection setup
const DefaultDialTimeout = 5 * time.Second

// Client talks to a line server, opening one connection per request.
// Failures are *status.Error values that unwrap to model sentinels.
type Client struct {
	addr        string
	dialTimeout time.Duration
	ioTimeout   time.Duration
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithTimeouts overrides the dial and IO timeouts
func WithTimeouts(dial, ioTimeout time.Duration) ClientOption {
	return func(c *Client) {
		if dial > 0 {
			c.dialTimeout = dial
		}
		if ioTimeout > 0 {
			c.ioTimeout = ioTimeout
		}
	}
}

// NewClient creates a client for the server at addr
func NewClient(addr string, opts ...ClientOption) *Client {
	c := &Client{
		addr:        addr,
		dialTimeout: DefaultDialTimeout,
		ioTimeout:   DefaultIOTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr returns the server address
func (c *Client) Addr() string {
	return c.addr
}

// Register asks for a player id for nickname
func (c *Client) Register(ctx context.Context, nickname string) (model.PlayerID, error) {
	payload, err := c.do(ctx, HeaderRegister, nickname)
	if err != nil {
		return "", err
	}
	return model.PlayerID(payload), nil
}

// ConnectCheck verifies the server answers at all
func (c *Client) ConnectCheck(ctx context.Context) error {
	_, port, err := net.SplitHostPort(c.addr)
	if err != nil {
		port = "0"
	}
	_, err = c.do(ctx, HeaderConnectCheck, port)
	return err
}

// ListGames returns every room on the server
func (c *Client) ListGames(ctx context.Context) ([]model.GameSummary, error) {
	payload, err := c.do(ctx, HeaderListGames)
	if err != nil {
		return nil, err
	}
	var list []response.GameSummary
	if err := decodeJSON(payload, &list); err != nil {
		return nil, err
	}
	out := make([]model.GameSummary, len(list))
	for i, s := range list {
		out[i] = s.ToModel()
	}
	return out, nil
}

// CreateGame opens a room seating the player
func (c *Client) CreateGame(ctx context.Context, playerID model.PlayerID, maxPlayers int) (model.GameSnapshot, error) {
	payload, err := c.do(ctx, HeaderCreateGame, string(playerID), strconv.Itoa(maxPlayers))
	if err != nil {
		return model.GameSnapshot{}, err
	}
	id, body, ok := strings.Cut(payload, FieldSep)
	if !ok {
		return model.GameSnapshot{}, status.Wrap(status.ConnectionError,
			fmt.Errorf("%w: create reply has no game id", model.ErrMalformedRequest))
	}
	snap, err := decodeSnapshot(body)
	if err != nil {
		return model.GameSnapshot{}, err
	}
	snap.GameID = model.GameID(id)
	return snap, nil
}

// JoinGame takes a seat in a room
func (c *Client) JoinGame(ctx context.Context, playerID model.PlayerID, gameID model.GameID) (model.GameSnapshot, error) {
	return c.snapshot(ctx, HeaderJoinGame, string(playerID), string(gameID))
}

// MakeMove writes value at (x, y)
func (c *Client) MakeMove(ctx context.Context, playerID model.PlayerID, gameID model.GameID, x, y, value int) (model.GameSnapshot, error) {
	return c.snapshot(ctx, HeaderMakeMove,
		string(playerID), string(gameID), strconv.Itoa(x), strconv.Itoa(y), strconv.Itoa(value))
}

// FetchState returns the current snapshot of a room
func (c *Client) FetchState(ctx context.Context, gameID model.GameID) (model.GameSnapshot, error) {
	return c.snapshot(ctx, HeaderFetchState, string(gameID))
}

// QuitGame gives up the player's seat
func (c *Client) QuitGame(ctx context.Context, playerID model.PlayerID, gameID model.GameID) error {
	_, err := c.do(ctx, HeaderQuitGame, string(playerID), string(gameID))
	return err
}

// QuitServer leaves every room and unregisters the player
func (c *Client) QuitServer(ctx context.Context, playerID model.PlayerID) error {
	_, err := c.do(ctx, HeaderQuitServer, string(playerID))
	return err
}

func (c *Client) snapshot(ctx context.Context, h Header, fields ...string) (model.GameSnapshot, error) {
	payload, err := c.do(ctx, h, fields...)
	if err != nil {
		return model.GameSnapshot{}, err
	}
	return decodeSnapshot(payload)
}

// do performs one exchange and returns the payload of an OK response
func (c *Client) do(ctx context.Context, h Header, fields ...string) (string, error) {
	req, err := NewRequest(h, fields...)
	if err != nil {
		return "", err
	}

	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return "", status.Wrap(status.FromDialError(err), err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.ioTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return "", status.Wrap(status.ConnectionError, err)
	}

	if _, err := io.WriteString(conn, req.Encode()); err != nil {
		return "", status.Wrap(status.ConnectionError, err)
	}
	line, err := readLine(conn)
	if err != nil {
		return "", status.Wrap(status.ConnectionError, err)
	}

	resp, err := ParseResponse(line)
	if err != nil {
		return "", status.Wrap(status.ConnectionError, err)
	}
	if resp.Status != status.OK {
		return "", status.New(resp.Status, resp.Payload)
	}
	return resp.Payload, nil
}

func decodeSnapshot(payload string) (model.GameSnapshot, error) {
	var snap response.GameSnapshot
	if err := decodeJSON(payload, &snap); err != nil {
		return model.GameSnapshot{}, err
	}
	out, err := snap.ToModel()
	if err != nil {
		return model.GameSnapshot{}, status.Wrap(status.ConnectionError, err)
	}
	return out, nil
}

func decodeJSON(payload string, v any) error {
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return status.Wrap(status.ConnectionError, fmt.Errorf("decoding payload: %w", err))
	}
	return nil
}

// readLine reads one terminated message. A final unterminated line at EOF is
// accepted.
func readLine(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), MaxLineLength)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return sc.Text(), nil
}
