package channel

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnector(t *testing.T) *RedisConnector {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisConnector(rdb)
}

func TestRedisPublishSubscribeRoundTrip(t *testing.T) {
	ctx := context.Background()
	connector := newTestConnector(t)

	sub, err := connector.Subscribe(ctx, "room")
	require.NoError(t, err)
	defer sub.Leave()

	received := make(chan []byte, 1)
	sub.OnMessage(func(payload []byte) { received <- payload })

	pub, err := connector.Subscribe(ctx, "room")
	require.NoError(t, err)
	defer pub.Leave()

	require.NoError(t, pub.Publish(ctx, []byte(`{"hello":"world"}`)))

	select {
	case payload := <-received:
		assert.JSONEq(t, `{"hello":"world"}`, string(payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestRedisPublisherReceivesOwnBroadcast(t *testing.T) {
	ctx := context.Background()
	connector := newTestConnector(t)

	sub, err := connector.Subscribe(ctx, "room")
	require.NoError(t, err)
	defer sub.Leave()

	received := make(chan []byte, 1)
	sub.OnMessage(func(payload []byte) { received <- payload })

	// The channel makes no sender exception; echo suppression is the
	// client's job.
	require.NoError(t, sub.Publish(ctx, []byte("own")))

	select {
	case payload := <-received:
		assert.Equal(t, "own", string(payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for own echo")
	}
}

func TestRedisLeaveStopsDelivery(t *testing.T) {
	ctx := context.Background()
	connector := newTestConnector(t)

	sub, err := connector.Subscribe(ctx, "room")
	require.NoError(t, err)

	received := make(chan []byte, 4)
	sub.OnMessage(func(payload []byte) { received <- payload })
	require.NoError(t, sub.Leave())

	pub, err := connector.Subscribe(ctx, "room")
	require.NoError(t, err)
	defer pub.Leave()
	require.NoError(t, pub.Publish(ctx, []byte("late")))

	select {
	case payload := <-received:
		t.Fatalf("unexpected delivery after leave: %s", payload)
	case <-time.After(200 * time.Millisecond):
	}
}
