package ledger

import (
	"sync"
	"time"

	"github.com/smartdevs17/passkey-playground/internal/models"
	"github.com/smartdevs17/passkey-playground/internal/storage"
)

const (
	// DefaultHistoryCapacity bounds the transaction history
	DefaultHistoryCapacity = 50
	// DefaultHistoryKey is the persistence key of the transaction history
	DefaultHistoryKey = "playground.history"
)

// HistoryLedger is the bounded, newest-first record of completed operations.
// Every record is persisted.
type HistoryLedger struct {
	mu       sync.RWMutex
	records  []models.TransactionRecord
	capacity int
	key      string
	store    *storage.Adapter
	observer Observer
	now      func() time.Time
}

// HistoryOption customizes a HistoryLedger
type HistoryOption func(*HistoryLedger)

// WithHistoryCapacity overrides the record bound
func WithHistoryCapacity(capacity int) HistoryOption {
	return func(h *HistoryLedger) {
		if capacity > 0 {
			h.capacity = capacity
		}
	}
}

// WithHistoryKey overrides the persistence key
func WithHistoryKey(key string) HistoryOption {
	return func(h *HistoryLedger) {
		if key != "" {
			h.key = key
		}
	}
}

// WithHistoryObserver reports new records to o
func WithHistoryObserver(o Observer) HistoryOption {
	return func(h *HistoryLedger) { h.observer = o }
}

// WithHistoryClock sets the timestamp source
func WithHistoryClock(now func() time.Time) HistoryOption {
	return func(h *HistoryLedger) { h.now = now }
}

// NewHistoryLedger restores the persisted history as is
func NewHistoryLedger(store *storage.Adapter, opts ...HistoryOption) *HistoryLedger {
	h := &HistoryLedger{
		capacity: DefaultHistoryCapacity,
		key:      DefaultHistoryKey,
		store:    store,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.records = storage.Load(store, h.key, []models.TransactionRecord(nil))
	if len(h.records) > h.capacity {
		h.records = h.records[:h.capacity]
	}
	return h
}

// Record adds a completed operation to the front of the history
func (h *HistoryLedger) Record(signature string, kind models.TxKind, status models.TxStatus, details ...string) models.TransactionRecord {
	record := models.TransactionRecord{
		Signature: signature,
		Kind:      kind,
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
		Status:    status,
	}
	if len(details) > 0 {
		record.Details = details[0]
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	next := make([]models.TransactionRecord, 0, min(len(h.records)+1, h.capacity))
	next = append(next, record)
	next = append(next, h.records...)
	if len(next) > h.capacity {
		next = next[:h.capacity]
	}

	h.records = next
	storage.Save(h.store, h.key, next)

	if h.observer != nil {
		h.observer.RecordTransaction(string(kind), string(status))
	}
	return record
}

// Clear empties the history and removes the persisted copy
func (h *HistoryLedger) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = nil
	h.store.Remove(h.key)
}

// Records returns a copy of the history, newest first
func (h *HistoryLedger) Records() []models.TransactionRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.TransactionRecord, len(h.records))
	copy(out, h.records)
	return out
}
