package storage

import (
	"context"
	"errors"
	"time"

	"github.com/smartdevs17/passkey-playground/internal/metrics"
)

// StorageWithMetrics wraps a storage implementation with metrics
type StorageWithMetrics struct {
	Storage
	metricsManager *metrics.Manager
}

// NewStorageWithMetrics creates a storage wrapper with metrics
func NewStorageWithMetrics(storage Storage, metricsManager *metrics.Manager) *StorageWithMetrics {
	return &StorageWithMetrics{
		Storage:        storage,
		metricsManager: metricsManager,
	}
}

// Get reads a key and records metrics
func (s *StorageWithMetrics) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	value, err := s.Storage.Get(ctx, key)
	// A missing key is a normal outcome, not a failed operation.
	if errors.Is(err, ErrNotFound) {
		s.record("get", nil, start)
	} else {
		s.record("get", err, start)
	}
	return value, err
}

// Set writes a key and records metrics
func (s *StorageWithMetrics) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.Storage.Set(ctx, key, value)
	s.record("set", err, start)
	return err
}

// Delete removes a key and records metrics
func (s *StorageWithMetrics) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.Storage.Delete(ctx, key)
	s.record("delete", err, start)
	return err
}

func (s *StorageWithMetrics) record(operation string, err error, start time.Time) {
	if s.metricsManager == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metricsManager.GetPrometheusMetrics().RecordStorageOperation(
		operation,
		s.Storage.Name(),
		status,
		time.Since(start),
	)
}
