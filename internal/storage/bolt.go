package storage

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smartdevs17/passkey-playground/pkg/utils"
	bolt "go.etcd.io/bbolt"
)

var bucketState = []byte("state")

// BoltStorage implements Storage on a single-file BoltDB database
type BoltStorage struct {
	db     *bolt.DB
	config *StorageConfig
	logger *logrus.Entry
}

// NewBoltStorage creates a new BoltDB storage instance
func NewBoltStorage(config *StorageConfig) *BoltStorage {
	return &BoltStorage{
		config: config,
		logger: utils.ComponentLogger("storage.bolt"),
	}
}

// Name returns the backend name
func (b *BoltStorage) Name() string { return "bolt" }

// Connect opens the database file
func (b *BoltStorage) Connect() error {
	dir := filepath.Dir(b.config.ConnectionString)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create database directory", err.Error())
		}
	}

	db, err := bolt.Open(b.config.ConnectionString, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open BoltDB database", err.Error())
	}

	b.db = db
	b.logger.WithField("path", b.config.ConnectionString).Info("BoltDB database opened")
	return nil
}

// Close releases the database handle
func (b *BoltStorage) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// Ping checks that the database is open
func (b *BoltStorage) Ping() error {
	if b.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	return b.db.View(func(tx *bolt.Tx) error { return nil })
}

// Migrate creates the state bucket
func (b *BoltStorage) Migrate() error {
	if b.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketState)
		return err
	})
}

// Get returns the value stored under key
func (b *BoltStorage) Get(_ context.Context, key string) ([]byte, error) {
	if b.db == nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}

	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketState)
		if bucket == nil {
			return ErrNotFound
		}
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		// raw is only valid inside the transaction
		value = append([]byte(nil), raw...)
		return nil
	})
	return value, err
}

// Set stores value under key
func (b *BoltStorage) Set(_ context.Context, key string, value []byte) error {
	if b.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketState)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), value)
	})
}

// Delete removes key
func (b *BoltStorage) Delete(_ context.Context, key string) error {
	if b.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketState)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
}

// Keys lists all stored keys
func (b *BoltStorage) Keys(_ context.Context) ([]string, error) {
	if b.db == nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}

	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketState)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}
