package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/safecircle/backend/internal/domain"
)

func setupTestStream(t *testing.T) (*miniredis.Miniredis, *redis.Client, *ChangeStream) {
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, client, NewChangeStream(client, "", zap.NewNop())
}

func nextEvent(t *testing.T, sub domain.Subscription) domain.ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "events channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
	return domain.ChangeEvent{}
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(context.Background(), Config{Addr: addr})
	assert.Error(t, err)
}

func TestChangeStream_PublishSubscribe(t *testing.T) {
	_, _, stream := setupTestStream(t)
	ctx := context.Background()

	assert.Equal(t, "safecircle:changes:alerts", stream.Channel(domain.EntityAlerts))

	sub, err := stream.Subscribe(ctx, domain.EntityAlerts)
	require.NoError(t, err)
	defer sub.Close()

	at := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	require.NoError(t, stream.Publish(ctx, domain.ChangeEvent{Entity: domain.EntityAlerts, Op: "insert", At: at}))

	ev := nextEvent(t, sub)
	assert.Equal(t, domain.EntityAlerts, ev.Entity)
	assert.Equal(t, "insert", ev.Op)
	assert.True(t, at.Equal(ev.At))
}

func TestChangeStream_EntitiesAreSeparate(t *testing.T) {
	_, _, stream := setupTestStream(t)
	ctx := context.Background()

	sub, err := stream.Subscribe(ctx, domain.EntityAlerts)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, stream.Publish(ctx, domain.ChangeEvent{Entity: domain.EntityEscalations, Op: "insert"}))
	require.NoError(t, stream.Publish(ctx, domain.ChangeEvent{Entity: domain.EntityAlerts, Op: "update"}))

	ev := nextEvent(t, sub)
	assert.Equal(t, "update", ev.Op)
}

func TestChangeStream_MalformedPayloadStillSignals(t *testing.T) {
	_, client, stream := setupTestStream(t)
	ctx := context.Background()

	sub, err := stream.Subscribe(ctx, domain.EntityAlerts)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, client.Publish(ctx, stream.Channel(domain.EntityAlerts), "not json").Err())

	ev := nextEvent(t, sub)
	assert.Equal(t, domain.EntityAlerts, ev.Entity)
	assert.Empty(t, ev.Op)
}

func TestChangeStream_CloseEndsEvents(t *testing.T) {
	_, _, stream := setupTestStream(t)

	sub, err := stream.Subscribe(context.Background(), domain.EntityAlerts)
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	assert.NotPanics(t, func() { _ = sub.Close() })

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestChangeStream_SubscribeFailsWhenServerDown(t *testing.T) {
	mr, _, stream := setupTestStream(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := stream.Subscribe(ctx, domain.EntityAlerts)
	assert.Error(t, err)
}
