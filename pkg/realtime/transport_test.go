package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)
	return mr
}

func TestChannelTransportRoundTrip(t *testing.T) {
	mr := setupMiniredis(t)

	sender, err := NewChannelTransport(&redis.Options{Addr: mr.Addr()}, "test")
	require.NoError(t, err)
	defer sender.Close()

	receiver, err := NewChannelTransport(&redis.Options{Addr: mr.Addr()}, "test")
	require.NoError(t, err)
	defer receiver.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := receiver.Receive(ctx)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	sent := Message{Type: "store_changed", Payload: json.RawMessage(`{"ts":42}`), Origin: "a"}
	require.NoError(t, sender.Send(ctx, sent))

	select {
	case got := <-msgs:
		assert.Equal(t, sent.Type, got.Type)
		assert.Equal(t, sent.Origin, got.Origin)
		assert.JSONEq(t, `{"ts":42}`, string(got.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestChannelTransportSkipsMalformedPayload(t *testing.T) {
	mr := setupMiniredis(t)

	receiver, err := NewChannelTransport(&redis.Options{Addr: mr.Addr()}, "test")
	require.NoError(t, err)
	defer receiver.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := receiver.Receive(ctx)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	require.NoError(t, rdb.Publish(ctx, UpdatesChannel("test"), "not json").Err())
	require.NoError(t, rdb.Publish(ctx, UpdatesChannel("test"), `{"type":"store_changed","origin":"b"}`).Err())

	select {
	case got := <-msgs:
		assert.Equal(t, "store_changed", got.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("valid message after malformed one was not delivered")
	}
}

func TestChannelTransportRequiresInstanceName(t *testing.T) {
	_, err := NewChannelTransport(&redis.Options{}, "")
	assert.Error(t, err)
}

func TestPollingTransportDeliversNewRecords(t *testing.T) {
	mr := setupMiniredis(t)

	sender, err := NewPollingTransport(&redis.Options{Addr: mr.Addr()}, "test", 10*time.Millisecond)
	require.NoError(t, err)
	defer sender.Close()

	receiver, err := NewPollingTransport(&redis.Options{Addr: mr.Addr()}, "test", 10*time.Millisecond)
	require.NoError(t, err)
	defer receiver.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := receiver.Receive(ctx)
	require.NoError(t, err)

	sent := Message{Type: "mentors_changed", Payload: json.RawMessage(`{"n":1}`), Origin: "a"}
	require.NoError(t, sender.Send(ctx, sent))

	select {
	case got := <-msgs:
		assert.Equal(t, "mentors_changed", got.Type)
		assert.JSONEq(t, `{"n":1}`, string(got.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for polled message")
	}
}

func TestPollingTransportSkipsPreexistingRecord(t *testing.T) {
	mr := setupMiniredis(t)

	sender, err := NewPollingTransport(&redis.Options{Addr: mr.Addr()}, "test", 10*time.Millisecond)
	require.NoError(t, err)
	defer sender.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A record written before the receiver subscribes is a stale baseline,
	// not a deliverable message.
	require.NoError(t, sender.Send(ctx, Message{Type: "store_changed", Origin: "a"}))

	receiver, err := NewPollingTransport(&redis.Options{Addr: mr.Addr()}, "test", 10*time.Millisecond)
	require.NoError(t, err)
	defer receiver.Close()

	msgs, err := receiver.Receive(ctx)
	require.NoError(t, err)

	select {
	case got := <-msgs:
		t.Fatalf("stale record was replayed: %+v", got)
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, sender.Send(ctx, Message{Type: "projects_changed", Origin: "a"}))

	select {
	case got := <-msgs:
		assert.Equal(t, "projects_changed", got.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("fresh record was not delivered")
	}
}

func TestPollingTransportDeliversEachSeqOnce(t *testing.T) {
	mr := setupMiniredis(t)

	sender, err := NewPollingTransport(&redis.Options{Addr: mr.Addr()}, "test", 5*time.Millisecond)
	require.NoError(t, err)
	defer sender.Close()

	receiver, err := NewPollingTransport(&redis.Options{Addr: mr.Addr()}, "test", 5*time.Millisecond)
	require.NoError(t, err)
	defer receiver.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := receiver.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, sender.Send(ctx, Message{Type: "finance_changed", Origin: "a"}))

	<-msgs
	select {
	case got := <-msgs:
		t.Fatalf("same record delivered twice: %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSchemaKeys(t *testing.T) {
	assert.Equal(t, "beacon:prod:updates", UpdatesChannel("prod"))
	assert.Equal(t, "beacon:prod:broadcast", BroadcastKey("prod"))
}
