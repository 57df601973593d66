package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"socialhub/internal/featureflags"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()

	a, err := hub.Register(10, nil)
	require.NoError(t, err)
	b, err := hub.Register(10, nil)
	require.NoError(t, err)

	assert.True(t, hub.IsOnline(10))
	assert.Equal(t, 2, hub.ConnectionCount())

	hub.UnregisterClient(a)
	hub.UnregisterClient(a)
	assert.Equal(t, 1, hub.ConnectionCount())
	assert.True(t, hub.IsOnline(10))

	hub.UnregisterClient(b)
	assert.False(t, hub.IsOnline(10))
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestClient_DoneClosesOnce(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(7, nil)
	require.NoError(t, err)

	select {
	case <-c.Done():
		t.Fatal("done closed before the read side ended")
	default:
	}

	c.markDone()
	c.markDone()

	select {
	case <-c.Done():
	case <-time.After(testEventuallyTimeout):
		t.Fatal("done not closed")
	}
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(3, nil)
		require.NoError(t, err)
	}

	_, err := hub.Register(3, nil)
	assert.ErrorIs(t, err, ErrUserFull)

	_, err = hub.Register(4, nil)
	assert.NoError(t, err)
}

func TestHub_BroadcastOnlyReachesTargetUser(t *testing.T) {
	hub := NewHub()
	alice, _ := hub.Register(1, nil)
	bob, _ := hub.Register(2, nil)

	assert.Equal(t, 1, hub.Broadcast(1, `{"type":"notification"}`))
	assert.Equal(t, 0, hub.Broadcast(99, "nobody"))

	assert.Len(t, alice.Send, 1)
	assert.Len(t, bob.Send, 0)
	assert.Equal(t, `{"type":"notification"}`, string(<-alice.Send))
}

func TestClient_TrySendReplacesOldestWithDropNotice(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(5, nil)
	require.NoError(t, err)

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, c.TrySend([]byte("m")))
	}
	assert.False(t, c.TrySend([]byte("overflow")))
	assert.Len(t, c.Send, sendBufferSize)

	var last []byte
	for len(c.Send) > 0 {
		last = <-c.Send
	}
	var evt Event
	require.NoError(t, json.Unmarshal(last, &evt))
	assert.Equal(t, EventMessagesDropped, evt.Type)
}

func TestHub_ShutdownRejectsNewConnections(t *testing.T) {
	hub := NewHub()
	_, err := hub.Register(1, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Equal(t, 0, hub.ConnectionCount())

	_, err = hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrServerFull)
}

func TestParseUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		channel string
		id      uint
		ok      bool
	}{
		{"notifications:user:7", 7, true},
		{"notifications:user:0", 0, false},
		{"notifications:user:abc", 0, false},
		{"chat:conv:7", 0, false},
	}
	for _, tt := range tests {
		id, ok := parseUserChannel(tt.channel)
		assert.Equal(t, tt.ok, ok, tt.channel)
		assert.Equal(t, tt.id, id, tt.channel)
	}
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestHub_StartWiringDeliversPublishedEvents(t *testing.T) {
	rdb := newTestRedis(t)
	hub := NewHub()
	client, err := hub.Register(42, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))

	pub := NewPublisher(hub, n, nil)
	pub.Publish(ctx, 42, EventNotification, map[string]string{"message": "hi"})

	var msg []byte
	require.Eventually(t, func() bool {
		select {
		case msg = <-client.Send:
			return true
		default:
			return false
		}
	}, testEventuallyTimeout, testPollInterval)

	var evt struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg, &evt))
	assert.Equal(t, EventNotification, evt.Type)
	assert.Equal(t, "hi", evt.Payload["message"])

	// Delivered once, through Redis only.
	assert.Never(t, func() bool { return len(client.Send) > 0 }, 10*testPollInterval, testPollInterval)
}

func TestPublisher_FallsBackToLocalHub(t *testing.T) {
	hub := NewHub()
	client, _ := hub.Register(8, nil)

	NewPublisher(hub, NewNotifier(nil), nil).Publish(context.Background(), 8, EventFriendRemoved, map[string]uint{"user_id": 3})

	require.Len(t, client.Send, 1)
	var evt Event
	require.NoError(t, json.Unmarshal(<-client.Send, &evt))
	assert.Equal(t, EventFriendRemoved, evt.Type)
}

func TestPublisher_RespectsRealtimeFlag(t *testing.T) {
	hub := NewHub()
	client, _ := hub.Register(8, nil)

	flags := featureflags.NewManager("realtime_push=off")
	NewPublisher(hub, nil, flags).Publish(context.Background(), 8, EventNotification, nil)

	assert.Len(t, client.Send, 0)
}
