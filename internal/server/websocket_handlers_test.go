package server

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"socialhub/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves the app on a loopback port for clients that need a real
// connection.
func (ts *testServer) listen() string {
	ts.t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(ts.t, err)
	go func() { _ = ts.app.Listener(ln) }()
	ts.t.Cleanup(func() { _ = ts.app.Shutdown() })
	return ln.Addr().String()
}

func readFrame(t *testing.T, conn *websocket.Conn) notifications.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev notifications.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.member("alice")

	res := ts.call(http.MethodGet, "/ws", token, nil)
	assert.Equal(t, http.StatusUpgradeRequired, res.Status)

	res = ts.call(http.MethodGet, "/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestWebsocketStreamsNotifications(t *testing.T) {
	ts := newTestServer(t)
	alice, aliceToken := ts.member("alice")
	_, bobToken := ts.member("bobby")
	addr := ts.listen()

	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws", RawQuery: url.Values{"token": {aliceToken}}.Encode()}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = conn.Close() }()

	snapshot := readFrame(t, conn)
	assert.Equal(t, notifications.EventUnreadCount, snapshot.Type)
	payload, _ := snapshot.Payload.(map[string]interface{})
	assert.EqualValues(t, 0, payload["count"])

	res := ts.call(http.MethodPost, "/notifications", bobToken, map[string]interface{}{
		"receiver": alice.ID,
		"type":     "like",
		"message":  "bobby liked your post",
	})
	require.Equal(t, http.StatusCreated, res.Status)

	ev := readFrame(t, conn)
	assert.Equal(t, notifications.EventNotification, ev.Type)
	raw, err := json.Marshal(ev.Payload)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "bobby liked your post")
}

func TestWebsocketRejectsBadToken(t *testing.T) {
	ts := newTestServer(t)
	addr := ts.listen()

	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws", RawQuery: "token=not-a-jwt"}
	_, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebsocketDisconnectReleasesClient(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.member("alice")
	addr := ts.listen()

	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws", RawQuery: url.Values{"token": {token}}.Encode()}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}

	readFrame(t, conn)
	assert.Equal(t, 1, ts.srv.hub.ConnectionCount())

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return ts.srv.hub.ConnectionCount() == 0
	}, 5*time.Second, 10*time.Millisecond)
}
