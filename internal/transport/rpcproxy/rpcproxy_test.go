package rpcproxy_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/competitive-sudoku-go/internal/factory"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/testutil"
	"github.com/mcoot/competitive-sudoku-go/internal/transport/rpcproxy"
	"github.com/mcoot/competitive-sudoku-go/internal/transport/status"
)

type ProxySuite struct {
	suite.Suite
	app    *factory.TestApp
	server *rpcproxy.Server
	ctx    context.Context
	cancel context.CancelFunc
}

func TestProxySuite(t *testing.T) {
	suite.Run(t, new(ProxySuite))
}

func (s *ProxySuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.server = rpcproxy.NewServer(rpcproxy.Config{}, s.app.Dispatcher, testutil.NopLogger())
	s.ctx, s.cancel = context.WithCancel(context.Background())
}

func (s *ProxySuite) TearDownTest() {
	s.cancel()
}

// connect starts a session over an in-memory pipe
func (s *ProxySuite) connect() (*rpcproxy.Proxy, chan struct{}) {
	serverSide, clientSide := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.server.ServeConn(s.ctx, serverSide)
	}()
	p := rpcproxy.NewProxy(clientSide)
	s.T().Cleanup(func() { p.Close() })
	return p, done
}

func (s *ProxySuite) TestCallsBeforeRegisterAreRejected() {
	p, _ := s.connect()

	_, err := p.ListGames(s.ctx)
	s.ErrorIs(err, model.ErrNotRegistered)
	s.Equal(status.Rejected, status.FromError(err))

	_, err = p.CreateGame(s.ctx, 2)
	s.ErrorIs(err, model.ErrNotRegistered)
}

func (s *ProxySuite) TestRoundTrip() {
	alice, _ := s.connect()
	bob, _ := s.connect()

	aliceID, err := alice.Register(s.ctx, "alice")
	s.Require().NoError(err)
	s.NotEmpty(aliceID)
	_, err = bob.Register(s.ctx, "bob")
	s.Require().NoError(err)

	_, err = alice.Register(s.ctx, "again")
	s.ErrorIs(err, model.ErrMalformedRequest)

	_, err = alice.MakeMove(s.ctx, 0, 0, 1)
	s.ErrorIs(err, model.ErrNoCurrentGame)

	s.app.MockRandom.QueueString("ROOM01")
	snap, err := alice.CreateGame(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(model.GameID("ROOM01"), snap.GameID)
	s.Equal(model.GameStateOpen, snap.State)

	snap, err = bob.JoinGame(s.ctx, "ROOM01")
	s.Require().NoError(err)
	s.Equal(model.GameStateFull, snap.State)

	games, err := bob.ListGames(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.GameSummary{{ID: "ROOM01", SeatCount: 2, MaxPlayers: 2, State: model.GameStateFull}}, games)

	a, b := factory.TestBlanks[0], factory.TestBlanks[1]
	_, err = alice.MakeMove(s.ctx, a.X, a.Y, testutil.SolvedValue(a))
	s.Require().NoError(err)
	_, err = bob.MakeMove(s.ctx, 0, 1, 1)
	s.ErrorIs(err, model.ErrCellLocked)

	snap, err = bob.MakeMove(s.ctx, b.X, b.Y, testutil.SolvedValue(b))
	s.Require().NoError(err)
	s.Equal(model.GameStateComplete, snap.State)

	state, err := alice.FetchState(s.ctx)
	s.Require().NoError(err)
	s.Equal(snap, state)

	s.Require().NoError(alice.QuitGame(s.ctx))
	_, err = alice.FetchState(s.ctx)
	s.ErrorIs(err, model.ErrNoCurrentGame)
}

func (s *ProxySuite) TestJoinFullGame() {
	alice, _ := s.connect()
	bob, _ := s.connect()
	_, err := alice.Register(s.ctx, "alice")
	s.Require().NoError(err)
	_, err = bob.Register(s.ctx, "bob")
	s.Require().NoError(err)

	snap, err := alice.CreateGame(s.ctx, 1)
	s.Require().NoError(err)
	_, err = bob.JoinGame(s.ctx, snap.GameID)
	s.ErrorIs(err, model.ErrGameFull)
	s.Equal(status.GameFull, status.FromError(err))
}

func (s *ProxySuite) TestQuitServerAllowsRegisterAgain() {
	p, _ := s.connect()
	_, err := p.Register(s.ctx, "alice")
	s.Require().NoError(err)

	s.Require().NoError(p.QuitServer(s.ctx))
	s.Equal(0, s.app.Players.Count())

	_, err = p.Register(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1, s.app.Players.Count())
}

func (s *ProxySuite) TestDisconnectReleasesPlayer() {
	p, done := s.connect()
	_, err := p.Register(s.ctx, "alice")
	s.Require().NoError(err)
	snap, err := p.CreateGame(s.ctx, 2)
	s.Require().NoError(err)

	s.Require().NoError(p.Close())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.FailNow("session did not end")
	}

	s.Equal(0, s.app.Players.Count())
	_, err = s.app.Dispatcher.FetchState(s.ctx, snap.GameID)
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ProxySuite) TestServeOverTCP() {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	done := make(chan error, 1)
	go func() { done <- s.server.Serve(s.ctx, ln) }()

	p, err := rpcproxy.Dial(s.ctx, ln.Addr().String(), time.Second)
	s.Require().NoError(err)
	_, err = p.Register(s.ctx, "alice")
	s.Require().NoError(err)

	// Shutting down closes the session, which releases the player.
	s.cancel()
	s.Require().NoError(<-done)
	s.Equal(0, s.app.Players.Count())

	_, err = p.ListGames(context.Background())
	s.ErrorIs(err, status.ErrConnection)
}
