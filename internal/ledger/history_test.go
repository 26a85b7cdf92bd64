package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/passkey-playground/internal/models"
	"github.com/smartdevs17/passkey-playground/internal/storage"
)

func TestRecordNewestFirst(t *testing.T) {
	history := NewHistoryLedger(nil)

	history.Record("", models.TxKindTransfer, models.TxStatusFailed, "insufficient funds")
	history.Record("5xYz...", models.TxKindTransfer, models.TxStatusSuccess, "ok")

	records := history.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "5xYz...", records[0].Signature)
	assert.Equal(t, models.TxStatusSuccess, records[0].Status)
	assert.Equal(t, "", records[1].Signature)
	assert.Equal(t, models.TxStatusFailed, records[1].Status)
	assert.Equal(t, "insufficient funds", records[1].Details)
}

func TestRecordCapacityAndTimestamps(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	history := NewHistoryLedger(nil, WithHistoryCapacity(DefaultHistoryCapacity), WithHistoryClock(func() time.Time {
		tick++
		return start.Add(time.Duration(tick) * time.Second)
	}))

	for i := 0; i < 80; i++ {
		history.Record(fmt.Sprintf("sig-%d", i), models.TxKindAirdrop, models.TxStatusSuccess)
		require.LessOrEqual(t, len(history.Records()), DefaultHistoryCapacity)
	}

	records := history.Records()
	require.Len(t, records, DefaultHistoryCapacity)
	assert.Equal(t, "sig-79", records[0].Signature)
	assert.Equal(t, "sig-30", records[len(records)-1].Signature)

	for i := 1; i < len(records); i++ {
		newer, err := time.Parse(time.RFC3339Nano, records[i-1].Timestamp)
		require.NoError(t, err)
		older, err := time.Parse(time.RFC3339Nano, records[i].Timestamp)
		require.NoError(t, err)
		assert.True(t, newer.After(older))
	}
}

func TestHistoryPersistsAndClears(t *testing.T) {
	backend := storage.NewMemoryStorage()
	history := NewHistoryLedger(storage.NewAdapter(backend))

	history.Record("sig-1", models.TxKindSubscription, models.TxStatusSuccess, "Basic plan")
	history.Record("", models.TxKindTransfer, models.TxStatusFailed)

	reloaded := NewHistoryLedger(storage.NewAdapter(backend))
	assert.Equal(t, history.Records(), reloaded.Records())

	reloaded.Clear()
	assert.Empty(t, reloaded.Records())
	_, err := backend.Get(context.Background(), DefaultHistoryKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

type recordingObserver struct {
	kinds []string
	txs   []string
}

func (r *recordingObserver) RecordLogEntry(kind string) { r.kinds = append(r.kinds, kind) }
func (r *recordingObserver) RecordTransaction(txType, status string) {
	r.txs = append(r.txs, txType+"/"+status)
}

func TestObserversAreNotified(t *testing.T) {
	obs := &recordingObserver{}
	log := NewLogLedger(nil, WithLogObserver(obs))
	history := NewHistoryLedger(nil, WithHistoryObserver(obs))

	log.Append(models.LogKindPending, "x")
	log.Append(models.LogKindSuccess, "y")
	history.Record("s", models.TxKindAirdrop, models.TxStatusSuccess)

	assert.Equal(t, []string{"pending", "success"}, obs.kinds)
	assert.Equal(t, []string{"airdrop/success"}, obs.txs)
}
