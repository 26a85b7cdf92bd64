package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/passkey-playground/internal/models"
	"github.com/smartdevs17/passkey-playground/internal/storage"
)

func persistedLog(t *testing.T, backend storage.Storage) []models.LogEntry {
	t.Helper()

	raw, err := backend.Get(context.Background(), DefaultLogKey)
	if err == storage.ErrNotFound {
		return nil
	}
	require.NoError(t, err)

	var entries []models.LogEntry
	require.NoError(t, json.Unmarshal(raw, &entries))
	return entries
}

func messages(entries []models.LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

func TestAppendSettlesPending(t *testing.T) {
	backend := storage.NewMemoryStorage()
	log := NewLogLedger(storage.NewAdapter(backend))

	log.Append(models.LogKindPending, "Requesting signature...")
	log.Append(models.LogKindSuccess, "Message signed!")
	log.Append(models.LogKindInfo, "Sig: abc123...")

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, models.LogKindInfo, entries[0].Kind)
	assert.Equal(t, "Sig: abc123...", entries[0].Message)
	assert.Equal(t, models.LogKindSuccess, entries[1].Kind)
	assert.Equal(t, "Message signed!", entries[1].Message)

	assert.Equal(t, messages(entries), messages(persistedLog(t, backend)))
}

func TestPendingIsNeverPersisted(t *testing.T) {
	backend := storage.NewMemoryStorage()
	log := NewLogLedger(storage.NewAdapter(backend))

	log.Append(models.LogKindInfo, "Ready")
	log.Append(models.LogKindPending, "Connecting wallet...")

	assert.Equal(t, 2, log.Len())
	assert.Equal(t, []string{"Ready"}, messages(persistedLog(t, backend)))

	log.Append(models.LogKindError, "Connection failed", "user cancelled")
	entries := log.Entries()
	assert.Equal(t, []string{"Connection failed", "Ready"}, messages(entries))
	assert.Equal(t, "user cancelled", entries[0].Details)
}

func TestPendingDoesNotRetirePending(t *testing.T) {
	log := NewLogLedger(nil)

	log.Append(models.LogKindPending, "first")
	log.Append(models.LogKindPending, "second")
	assert.Equal(t, []string{"second", "first"}, messages(log.Entries()))

	log.Append(models.LogKindSuccess, "done")
	assert.Equal(t, []string{"done"}, messages(log.Entries()))
}

func TestRandomAppendsRespectInvariants(t *testing.T) {
	backend := storage.NewMemoryStorage()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	log := NewLogLedger(storage.NewAdapter(backend), WithLogClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))

	kinds := []models.LogKind{models.LogKindInfo, models.LogKindSuccess, models.LogKindError, models.LogKindPending}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		kind := kinds[rng.Intn(len(kinds))]
		log.Append(kind, fmt.Sprintf("step %d", i))

		entries := log.Entries()
		require.LessOrEqual(t, len(entries), DefaultLogCapacity)
		for j := 1; j < len(entries); j++ {
			require.True(t, entries[j-1].Timestamp.After(entries[j].Timestamp), "log must be newest first")
		}
		if kind.Settles() {
			for _, e := range entries {
				require.NotEqual(t, models.LogKindPending, e.Kind)
			}
		}
		for _, e := range persistedLog(t, backend) {
			require.NotEqual(t, models.LogKindPending, e.Kind)
		}
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	log := NewLogLedger(nil, WithLogCapacity(3))
	for i := 1; i <= 5; i++ {
		log.Append(models.LogKindInfo, fmt.Sprintf("m%d", i))
	}
	assert.Equal(t, []string{"m5", "m4", "m3"}, messages(log.Entries()))
}

func TestReloadStripsPending(t *testing.T) {
	backend := storage.NewMemoryStorage()
	stale := []models.LogEntry{
		{ID: "3", Kind: models.LogKindPending, Message: "Sending transaction..."},
		{ID: "2", Kind: models.LogKindSuccess, Message: "Wallet connected"},
		{ID: "1", Kind: models.LogKindPending, Message: "Connecting wallet..."},
	}
	raw, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, backend.Set(context.Background(), DefaultLogKey, raw))

	log := NewLogLedger(storage.NewAdapter(backend))
	assert.Equal(t, []string{"Wallet connected"}, messages(log.Entries()))
}

func TestClearPending(t *testing.T) {
	backend := &countingStorage{MemoryStorage: storage.NewMemoryStorage()}
	log := NewLogLedger(storage.NewAdapter(backend))

	log.Append(models.LogKindInfo, "Ready")
	log.Append(models.LogKindPending, "Waiting")
	writes := backend.sets

	log.ClearPending()
	assert.Equal(t, []string{"Ready"}, messages(log.Entries()))
	assert.Equal(t, writes+1, backend.sets)

	log.ClearPending()
	assert.Equal(t, writes+1, backend.sets, "clearing with nothing pending must not write")
}

func TestClearAll(t *testing.T) {
	backend := storage.NewMemoryStorage()
	log := NewLogLedger(storage.NewAdapter(backend))
	log.Append(models.LogKindInfo, "Ready")

	log.ClearAll()
	assert.Empty(t, log.Entries())
	_, err := backend.Get(context.Background(), DefaultLogKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	reloaded := NewLogLedger(storage.NewAdapter(backend))
	assert.Empty(t, reloaded.Entries())
}

func TestEntriesReturnsCopy(t *testing.T) {
	log := NewLogLedger(nil)
	log.Append(models.LogKindInfo, "original")

	entries := log.Entries()
	entries[0].Message = "mutated"
	assert.Equal(t, "original", log.Entries()[0].Message)
}

type countingStorage struct {
	*storage.MemoryStorage
	sets int
}

func (c *countingStorage) Set(ctx context.Context, key string, value []byte) error {
	c.sets++
	return c.MemoryStorage.Set(ctx, key, value)
}
