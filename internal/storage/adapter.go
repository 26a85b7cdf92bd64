package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smartdevs17/passkey-playground/pkg/utils"
)

const defaultOpTimeout = 5 * time.Second

// Adapter persists JSON-serializable values and never surfaces a failure
// to its caller: any read problem yields the caller's default and any
// write problem is dropped. A nil backend behaves as "no persistence".
type Adapter struct {
	backend Storage
	timeout time.Duration
	logger  *logrus.Entry
}

// NewAdapter creates an adapter over backend. backend may be nil.
func NewAdapter(backend Storage) *Adapter {
	return &Adapter{
		backend: backend,
		timeout: defaultOpTimeout,
		logger:  utils.ComponentLogger("store"),
	}
}

// Available reports whether values written through the adapter can survive a restart
func (a *Adapter) Available() bool {
	return a != nil && a.backend != nil
}

// Load returns the value stored under key, or def when the store is
// unavailable, the key is absent, or the stored value cannot be decoded.
func Load[T any](a *Adapter, key string, def T) T {
	if !a.Available() {
		return def
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	raw, err := a.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.logger.WithError(err).WithField("key", key).Warn("Failed to read persisted value")
		}
		return def
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		a.logger.WithError(err).WithField("key", key).Warn("Discarding undecodable persisted value")
		return def
	}
	return value
}

// Save serializes value and writes it under key. Failures are logged and dropped.
func Save[T any](a *Adapter, key string, value T) {
	if !a.Available() {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		a.logger.WithError(err).WithField("key", key).Warn("Failed to encode value for persistence")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.backend.Set(ctx, key, raw); err != nil {
		a.logger.WithError(err).WithField("key", key).Warn("Failed to persist value")
	}
}

// Remove deletes the value under key. Failures are logged and dropped.
func (a *Adapter) Remove(key string) {
	if !a.Available() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.backend.Delete(ctx, key); err != nil {
		a.logger.WithError(err).WithField("key", key).Warn("Failed to remove persisted value")
	}
}
