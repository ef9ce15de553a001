package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound is returned by Get when the key has never been set or was deleted
var ErrNotFound = errors.New("key not found")

// ErrLocked is returned when an encrypted store is read before Unlock
var ErrLocked = errors.New("storage is encrypted and locked")

// KeyValue is the local persistence surface: whole values under string keys
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Options selects and configures a backend
type Options struct {
	Backend    string
	Dir        string
	SQLitePath string
}

var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

func validKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

// Open returns the configured backend
func Open(opts Options) (KeyValue, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Dir)
	case BackendSQLite:
		return NewSQLiteStore(opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
