package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"majlis/internal/pkg/kv"
)

func startServer(t *testing.T) (*Manager, string) {
	t.Helper()

	m := NewManager(context.Background(), localDeps(kv.NewMemory()))
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		m.Connect(conn, r.URL.Query().Get("token"))
	}))
	t.Cleanup(srv.Close)

	return m, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func TestManagerRoundTrip(t *testing.T) {
	m, url := startServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	ev := readEvent(t, conn)
	assert.JSONEq(t, `"login_state"`, string(ev["type"]))
	assert.Eventually(t, func() bool { return m.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"send"}`)))

	ev = readEvent(t, conn)
	assert.JSONEq(t, `"error"`, string(ev["type"]))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return m.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestManagerShutdownClosesTabs(t *testing.T) {
	m, url := startServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	readEvent(t, conn)
	require.Eventually(t, func() bool { return m.Count() == 1 }, time.Second, 10*time.Millisecond)

	m.Shutdown()
	assert.Zero(t, m.Count())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	conn2, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn2.Close()

	require.NoError(t, conn2.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn2.ReadMessage()
	assert.Error(t, err, "new tabs are refused after shutdown")
}
