// Package storage provides the key-value store behind the mint history.
package storage

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/asset-minter/config"
	klog "github.com/Klingon-tech/asset-minter/internal/log"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// DB is the interface for key-value storage.
type DB interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	// ForEach iterates over all keys with the given prefix in key order.
	// The callback receives a copy of the key and value.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// Open returns the DB selected by backend. The badger backend lives in dir.
func Open(backend config.HistoryBackend, dir string) (DB, error) {
	switch backend {
	case config.HistoryMemory:
		klog.Storage.Debug().Msg("Using in-memory store")
		return NewMemory(), nil
	case config.HistoryBadger, "":
		db, err := NewBadger(dir)
		if err != nil {
			return nil, err
		}
		klog.Storage.Debug().Str("path", dir).Msg("Opened badger store")
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
