package feed

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/dealersim/internal/simulator"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func sampleResults() simulator.Results {
	return simulator.Results{
		17: {
			{Strategy: 17, GameIndex: 1, HandValue: 19},
			{Strategy: 17, GameIndex: 2, HandValue: 24, IsBusted: true},
		},
		16: {{Strategy: 16, GameIndex: 1, HandValue: 20}},
	}
}

func TestFromEvent(t *testing.T) {
	msg, ok := FromEvent(simulator.Progress{Percent: 42, Message: "Strategy 17: completed 400/1000", Strategy: 17})
	require.True(t, ok)
	assert.Equal(t, Message{Type: TypeProgress, Percent: 42, Message: "Strategy 17: completed 400/1000", Strategy: 17}, msg)

	msg, ok = FromEvent(simulator.Snapshot{Results: sampleResults(), Strategy: 17})
	require.True(t, ok)
	assert.Equal(t, TypeSnapshot, msg.Type)
	require.Len(t, msg.Rows, 2)
	assert.Equal(t, 16, msg.Rows[0].Strategy)
	assert.Equal(t, 17, msg.Rows[1].Strategy)
	assert.Equal(t, 0.5, msg.Rows[1].BustRate)

	msg, ok = FromEvent(simulator.StrategyFailed{Strategy: 18, Err: errors.New("boom")})
	require.True(t, ok)
	assert.Equal(t, "boom", msg.Error)

	msg, ok = FromEvent(simulator.Cancelled{Results: sampleResults()})
	require.True(t, ok)
	assert.Equal(t, TypeCancelled, msg.Type)
	assert.Equal(t, "stopped by user", msg.Message)

	msg, ok = FromEvent(simulator.Completed{Results: sampleResults()})
	require.True(t, ok)
	assert.Equal(t, 100, msg.Percent)
}

func TestHubBroadcastsToClients(t *testing.T) {
	hub := NewHub(quietLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, 5*time.Second, 10*time.Millisecond)

	hub.Publish(simulator.Progress{Percent: 10, Message: "Simulating strategy 16...", Strategy: 16})
	hub.Publish(simulator.Snapshot{Results: sampleResults(), Strategy: 17})

	for _, conn := range []*websocket.Conn{a, b} {
		first := read(t, conn)
		assert.Equal(t, TypeProgress, first.Type)
		assert.Equal(t, 10, first.Percent)

		second := read(t, conn)
		assert.Equal(t, TypeSnapshot, second.Type)
		assert.Len(t, second.Rows, 2)
	}
}

func TestLateClientGetsLatestState(t *testing.T) {
	hub := NewHub(quietLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	hub.Publish(simulator.Progress{Percent: 5})
	hub.Publish(simulator.Progress{Percent: 30})
	hub.Publish(simulator.Snapshot{Results: sampleResults()})

	conn := dial(t, srv)
	assert.Equal(t, 30, read(t, conn).Percent)
	assert.Equal(t, TypeSnapshot, read(t, conn).Type)
}

func TestClientDisconnectIsNoticed(t *testing.T) {
	hub := NewHub(quietLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub(quietLogger())

	slow := newClient()
	hub.mu.Lock()
	hub.clients[slow] = struct{}{}
	hub.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < sendBuffer+5; i++ {
			hub.Publish(simulator.Progress{Percent: i % 100})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}

	assert.Zero(t, hub.Clients())
	select {
	case <-slow.done:
	default:
		t.Fatal("dropped client should be closed")
	}
}

func TestUnknownEventIgnored(t *testing.T) {
	_, ok := FromEvent(nil)
	assert.False(t, ok)
}
