// File: internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a key holds no value
var ErrNotFound = errors.New("key not found")

// Storage defines the durable key-value operations backing the playground state
type Storage interface {
	// Connection management
	Connect() error
	Close() error
	Ping() error
	Migrate() error

	// Key-value operations
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)

	// Backend name, e.g. "sqlite"
	Name() string
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type             string        `json:"type"`
	ConnectionString string        `json:"connection_string"`
	MaxConnections   int           `json:"max_connections"`
	MaxIdleTime      time.Duration `json:"max_idle_time"`
}
