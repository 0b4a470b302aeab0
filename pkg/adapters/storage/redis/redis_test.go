package redis

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/aescanero/u64feed/pkg/ports"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "u64feed:session:abc", getSessionKey("abc"))
}

func TestSessionStoreWrapsConnectionErrors(t *testing.T) {
	store := NewSessionStore(unreachableClient(t), time.Hour, zap.NewNop())
	ctx := context.Background()

	err := store.Save(ctx, &ports.SessionRecord{ID: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save session")

	_, err = store.Load(ctx, "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrSessionNotFound)

	_, err = store.List(ctx)
	assert.Error(t, err)
}

func TestSessionStoreRejectsMissingID(t *testing.T) {
	store := NewSessionStore(unreachableClient(t), time.Hour, zap.NewNop())
	assert.Error(t, store.Save(context.Background(), &ports.SessionRecord{}))
}

func newMiniredisStore(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewSessionStore(client, ttl, zap.NewNop()), mr
}

func TestSessionStoreSaveLoad(t *testing.T) {
	store, mr := newMiniredisStore(t, time.Hour)
	ctx := context.Background()

	opened := time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC)
	record := &ports.SessionRecord{
		ID:             "abc",
		Endpoint:       "ws://localhost:8080/random-u64",
		State:          ports.SessionStateOpen,
		GreetingSent:   true,
		FramesReceived: 3,
		BytesReceived:  42,
		StartedAt:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		OpenedAt:       &opened,
	}
	require.NoError(t, store.Save(ctx, record))
	assert.Equal(t, time.Hour, mr.TTL(getSessionKey("abc")))

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, record.Endpoint, loaded.Endpoint)
	assert.Equal(t, ports.SessionStateOpen, loaded.State)
	assert.True(t, loaded.GreetingSent)
	assert.EqualValues(t, 3, loaded.FramesReceived)
	assert.EqualValues(t, 42, loaded.BytesReceived)
	assert.True(t, record.StartedAt.Equal(loaded.StartedAt))
	require.NotNil(t, loaded.OpenedAt)
	assert.True(t, opened.Equal(*loaded.OpenedAt))
	assert.Nil(t, loaded.ClosedAt)

	// Save overwrites and refreshes the TTL
	mr.FastForward(30 * time.Minute)
	record.State = ports.SessionStateClosed
	require.NoError(t, store.Save(ctx, record))
	assert.Equal(t, time.Hour, mr.TTL(getSessionKey("abc")))

	loaded, err = store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, ports.SessionStateClosed, loaded.State)
}

func TestSessionStoreMissingAndExpired(t *testing.T) {
	store, mr := newMiniredisStore(t, time.Minute)
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, &ports.SessionRecord{ID: "abc", StartedAt: time.Now()}))
	mr.FastForward(2 * time.Minute)

	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSessionStoreListOrdersByStart(t *testing.T) {
	store, mr := newMiniredisStore(t, time.Hour)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.Save(ctx, &ports.SessionRecord{
			ID:        id,
			StartedAt: base.Add(time.Duration(2-i) * time.Second),
		}))
	}
	// keys outside the prefix are ignored
	require.NoError(t, mr.Set("u64feed:other", "x"))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "b", records[0].ID)
	assert.Equal(t, "a", records[1].ID)
	assert.Equal(t, "c", records[2].ID)
}

func TestSessionStoreDelete(t *testing.T) {
	store, mr := newMiniredisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &ports.SessionRecord{ID: "abc"}))
	require.NoError(t, store.Delete(ctx, "abc"))
	assert.False(t, mr.Exists(getSessionKey("abc")))

	_, err := store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	// deleting an unknown id is not an error
	assert.NoError(t, store.Delete(ctx, "abc"))
}
