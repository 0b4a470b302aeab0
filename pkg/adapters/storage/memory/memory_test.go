package memory

import (
	"context"
	"testing"
	"time"

	"github.com/aescanero/u64feed/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	record := &ports.SessionRecord{
		ID:        "a",
		Endpoint:  "ws://localhost:8080/random-u64",
		State:     ports.SessionStateConnecting,
		StartedAt: time.Now(),
	}
	require.NoError(t, store.Save(ctx, record))

	// the store keeps a copy
	record.State = ports.SessionStateOpen

	loaded, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, ports.SessionStateConnecting, loaded.State)

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStoreListOrdersByStart(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Now()

	require.NoError(t, store.Save(ctx, &ports.SessionRecord{ID: "late", StartedAt: now.Add(time.Second)}))
	require.NoError(t, store.Save(ctx, &ports.SessionRecord{ID: "early", StartedAt: now}))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "early", records[0].ID)
	assert.Equal(t, "late", records[1].ID)
}

func TestSessionStoreRejectsMissingID(t *testing.T) {
	assert.Error(t, NewSessionStore().Save(context.Background(), &ports.SessionRecord{}))
}
