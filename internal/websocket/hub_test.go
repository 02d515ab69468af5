package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinecouple/cinecouple/internal/auth"
	"github.com/cinecouple/cinecouple/internal/config"
)

type testEnv struct {
	hub      *Hub
	server   *httptest.Server
	verifier *auth.Verifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	verifier, err := auth.NewVerifier(config.AuthConfig{JWTSecret: "hub-secret"})
	require.NoError(t, err)

	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", hub.HandleWebSocket, verifier.QueryTokenMiddleware())
	server := httptest.NewServer(e)

	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	return &testEnv{hub: hub, server: server, verifier: verifier}
}

func (env *testEnv) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()

	token, err := env.verifier.IssueToken(userID, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_BroadcastReachesOnlyTargetUser(t *testing.T) {
	env := newTestEnv(t)

	alice := env.dial(t, "alice")
	bob := env.dial(t, "bob")

	require.Eventually(t, func() bool {
		return env.hub.ClientCount("alice") == 1 && env.hub.ClientCount("bob") == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, env.hub.Broadcast("alice", "movie:added", map[string]string{"title": "Dark"}))
	require.NoError(t, env.hub.Broadcast("bob", "watchlist:reset", nil))

	msg := readMessage(t, alice)
	assert.Equal(t, "movie:added", msg.Type)
	assert.Equal(t, map[string]any{"title": "Dark"}, msg.Payload)
	assert.NotEmpty(t, msg.Timestamp)

	// Bob's first message is his own, not Alice's.
	assert.Equal(t, "watchlist:reset", readMessage(t, bob).Type)
}

func TestHub_MultipleConnectionsPerUser(t *testing.T) {
	env := newTestEnv(t)

	first := env.dial(t, "carol")
	second := env.dial(t, "carol")

	require.Eventually(t, func() bool {
		return env.hub.ClientCount("carol") == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, env.hub.Broadcast("carol", "movie:deleted", map[string]string{"id": "x"}))

	assert.Equal(t, "movie:deleted", readMessage(t, first).Type)
	assert.Equal(t, "movie:deleted", readMessage(t, second).Type)
}

func TestHub_PingPong(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t, "dave")

	require.NoError(t, conn.WriteJSON(Message{Type: "ping"}))
	assert.Equal(t, "pong", readMessage(t, conn).Type)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t, "erin")

	require.Eventually(t, func() bool {
		return env.hub.ClientCount("erin") == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return env.hub.ClientCount("erin") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsMissingToken(t *testing.T) {
	env := newTestEnv(t)

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	assert.NoError(t, hub.Broadcast("nobody", "movie:added", nil))
	assert.Zero(t, hub.ClientCount("nobody"))
}

func TestHub_BroadcastBacklog(t *testing.T) {
	// Not running, so nothing drains the queue.
	hub := NewHub(zerolog.Nop())

	for i := 0; i < sendBuffer; i++ {
		require.NoError(t, hub.Broadcast("u", "movie:added", nil))
	}
	assert.ErrorIs(t, hub.Broadcast("u", "movie:added", nil), ErrBacklog)
}
