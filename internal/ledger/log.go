package ledger

import (
	"sync"
	"time"

	"github.com/smartdevs17/passkey-playground/internal/models"
	"github.com/smartdevs17/passkey-playground/internal/storage"
	"github.com/smartdevs17/passkey-playground/pkg/utils"
)

const (
	// DefaultLogCapacity bounds the in-memory activity log
	DefaultLogCapacity = 30
	// DefaultLogKey is the persistence key of the activity log
	DefaultLogKey = "playground.logs"
)

// Observer is notified after entries are appended or records are made
type Observer interface {
	RecordLogEntry(kind string)
	RecordTransaction(txType, status string)
}

// LogLedger is the bounded, newest-first activity log. Pending entries
// live only in memory; everything else is persisted after each change.
type LogLedger struct {
	mu       sync.RWMutex
	entries  []models.LogEntry
	capacity int
	key      string
	store    *storage.Adapter
	observer Observer
	now      func() time.Time
}

// LogOption customizes a LogLedger
type LogOption func(*LogLedger)

// WithLogCapacity overrides the entry bound
func WithLogCapacity(capacity int) LogOption {
	return func(l *LogLedger) {
		if capacity > 0 {
			l.capacity = capacity
		}
	}
}

// WithLogKey overrides the persistence key
func WithLogKey(key string) LogOption {
	return func(l *LogLedger) {
		if key != "" {
			l.key = key
		}
	}
}

// WithLogObserver reports appended entries to o
func WithLogObserver(o Observer) LogOption {
	return func(l *LogLedger) { l.observer = o }
}

// WithLogClock sets the timestamp source
func WithLogClock(now func() time.Time) LogOption {
	return func(l *LogLedger) { l.now = now }
}

// NewLogLedger restores the persisted log, discarding any pending entries
// left behind by an earlier process.
func NewLogLedger(store *storage.Adapter, opts ...LogOption) *LogLedger {
	l := &LogLedger{
		capacity: DefaultLogCapacity,
		key:      DefaultLogKey,
		store:    store,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	restored := storage.Load(store, l.key, []models.LogEntry(nil))
	l.entries = withoutPending(restored)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	return l
}

// Append narrates one step of an operation. A settling kind (info, success,
// error) first retires every outstanding pending entry.
func (l *LogLedger) Append(kind models.LogKind, message string, details ...string) models.LogEntry {
	entry := models.LogEntry{
		ID:        utils.GenerateID(),
		Timestamp: l.now(),
		Kind:      kind,
		Message:   message,
	}
	if len(details) > 0 {
		entry.Details = details[0]
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.entries
	if kind.Settles() {
		current = withoutPending(current)
	}

	next := make([]models.LogEntry, 0, min(len(current)+1, l.capacity))
	next = append(next, entry)
	next = append(next, current...)
	if len(next) > l.capacity {
		next = next[:l.capacity]
	}

	l.entries = next
	storage.Save(l.store, l.key, withoutPending(next))

	if l.observer != nil {
		l.observer.RecordLogEntry(string(kind))
	}
	return entry
}

// ClearPending drops all pending entries. Nothing is written when none exist.
func (l *LogLedger) ClearPending() {
	l.mu.Lock()
	defer l.mu.Unlock()

	filtered := withoutPending(l.entries)
	if len(filtered) == len(l.entries) {
		return
	}
	l.entries = filtered
	storage.Save(l.store, l.key, filtered)
}

// ClearAll empties the log and removes the persisted copy
func (l *LogLedger) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	l.store.Remove(l.key)
}

// Entries returns a copy of the log, newest first
func (l *LogLedger) Entries() []models.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries in memory
func (l *LogLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func withoutPending(entries []models.LogEntry) []models.LogEntry {
	out := make([]models.LogEntry, 0, len(entries))
	for _, e := range entries {
		if e.Kind != models.LogKindPending {
			out = append(out, e)
		}
	}
	return out
}
