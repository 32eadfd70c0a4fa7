package presence

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/competitive-sudoku-go/internal/model"
	"github.com/mcoot/competitive-sudoku-go/internal/testutil"
)

func TestEncode(t *testing.T) {
	assert.Equal(t, "SERVERADDR;10.0.0.5:7000;alpha;",
		Encode(model.ServerInfo{Address: "10.0.0.5:7000", Name: "alpha", OpenGames: -1}))
	assert.Equal(t, "SERVERADDR;10.0.0.5:7000;alpha;3;",
		Encode(model.ServerInfo{Address: "10.0.0.5:7000", Name: "alpha", OpenGames: 3}))
}

func TestParse(t *testing.T) {
	tests := []struct {
		datagram string
		want     model.ServerInfo
	}{
		{"SERVERADDR;10.0.0.5:7000;alpha;", model.ServerInfo{Address: "10.0.0.5:7000", Name: "alpha", OpenGames: -1}},
		{"SERVERADDR;10.0.0.5:7000;alpha", model.ServerInfo{Address: "10.0.0.5:7000", Name: "alpha", OpenGames: -1}},
		{"SERVERADDR;10.0.0.5:7000;alpha;0;", model.ServerInfo{Address: "10.0.0.5:7000", Name: "alpha", OpenGames: 0}},
		{"SERVERADDR;h:1;;", model.ServerInfo{Address: "h:1", Name: "", OpenGames: -1}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.datagram)
		require.NoError(t, err, tt.datagram)
		assert.Equal(t, tt.want, got, tt.datagram)
	}
}

func TestParseRejects(t *testing.T) {
	for _, d := range []string{
		"",
		"hello",
		"SERVER;a:1;n;",
		"SERVERADDR;;n;",
		"SERVERADDR;a:1;",
		"SERVERADDR;a:1;n;many;",
		"SERVERADDR;a:1;n;-2;",
		"SERVERADDR;a:1;n;1;extra;",
	} {
		_, err := Parse(d)
		assert.ErrorIs(t, err, ErrBadDatagram, d)
	}
}

func TestObserveFirstSeenWins(t *testing.T) {
	l := NewListener(DefaultConfig(), testutil.NopLogger())
	src := &net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 40000}

	assert.True(t, l.Observe("SERVERADDR;10.0.0.5:7000;alpha;", src))
	assert.False(t, l.Observe("SERVERADDR;10.0.0.5:7000;renamed;4;", src))
	assert.True(t, l.Observe("SERVERADDR;10.0.0.6:7000;beta;2;", src))
	assert.False(t, l.Observe("garbage", src))

	assert.Equal(t, []model.ServerInfo{
		{Address: "10.0.0.5:7000", Name: "alpha", OpenGames: -1},
		{Address: "10.0.0.6:7000", Name: "beta", OpenGames: 2},
	}, l.Servers())
}

func TestObserveFillsUnspecifiedHost(t *testing.T) {
	l := NewListener(DefaultConfig(), testutil.NopLogger())
	src := &net.UDPAddr{IP: net.ParseIP("192.168.1.20"), Port: 50000}

	assert.True(t, l.Observe("SERVERADDR;:7000;alpha;", src))
	assert.True(t, l.Observe("SERVERADDR;0.0.0.0:7001;beta;", src))
	assert.True(t, l.Observe("SERVERADDR;game.local:7002;gamma;", src))

	servers := l.Servers()
	require.Len(t, servers, 3)
	assert.Equal(t, "192.168.1.20:7000", servers[0].Address)
	assert.Equal(t, "192.168.1.20:7001", servers[1].Address)
	assert.Equal(t, "game.local:7002", servers[2].Address)
}

func TestServersReturnsCopy(t *testing.T) {
	l := NewListener(DefaultConfig(), testutil.NopLogger())
	l.Observe("SERVERADDR;a:1;alpha;", nil)

	got := l.Servers()
	got[0].Name = "mutated"
	assert.Equal(t, "alpha", l.Servers()[0].Name)
}

func TestConcurrentObserve(t *testing.T) {
	l := NewListener(DefaultConfig(), testutil.NopLogger())
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Observe("SERVERADDR;a:1;alpha;", nil)
			_ = l.Servers()
		}()
	}
	wg.Wait()
	assert.Len(t, l.Servers(), 1)
}

func TestBroadcasterRejectsSeparators(t *testing.T) {
	hint := func() int { return 0 }

	_, err := NewBroadcaster(DefaultConfig(), "127.0.0.1:7000", "a;b", hint, testutil.NopLogger())
	assert.ErrorIs(t, err, ErrBadField)
	_, err = NewBroadcaster(DefaultConfig(), "127.0.0.1:7000;x", "alpha", hint, testutil.NopLogger())
	assert.ErrorIs(t, err, ErrBadField)
	_, err = NewBroadcaster(DefaultConfig(), "", "alpha", hint, testutil.NopLogger())
	assert.ErrorIs(t, err, ErrBadField)

	b, err := NewBroadcaster(DefaultConfig(), "127.0.0.1:7000", "alpha beta", hint, testutil.NopLogger())
	require.NoError(t, err)
	info, err := Parse(Encode(b.info()))
	require.NoError(t, err)
	assert.Equal(t, "alpha beta", info.Name)
}

func freeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).Port
}

func TestMulticastLoopback(t *testing.T) {
	cfg := Config{Group: DefaultGroup, Port: freeUDPPort(t), Interval: 20 * time.Millisecond, TTL: 1}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewListener(cfg, testutil.NopLogger())
	listenErr := make(chan error, 1)
	go func() { listenErr <- l.Run(ctx) }()

	b, err := NewBroadcaster(cfg, "127.0.0.1:7000", "loopback", func() int { return 2 }, testutil.NopLogger())
	require.NoError(t, err)
	sendErr := make(chan error, 1)
	go func() { sendErr <- b.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(l.Servers()) == 0 {
		select {
		case err := <-listenErr:
			t.Skipf("multicast unavailable: %v", err)
		case err := <-sendErr:
			t.Skipf("multicast unavailable: %v", err)
		case <-deadline:
			t.Skip("no multicast loopback delivery on this host")
		case <-time.After(20 * time.Millisecond):
		}
	}

	// Repeated datagrams from the same server keep a single entry
	time.Sleep(5 * cfg.Interval)
	assert.Equal(t, []model.ServerInfo{{Address: "127.0.0.1:7000", Name: "loopback", OpenGames: 2}}, l.Servers())

	cancel()
	select {
	case err := <-listenErr:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("listener did not stop")
	}
}
