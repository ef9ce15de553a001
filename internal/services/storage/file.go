package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"filippo.io/age"
)

const (
	// ageHeader is the prefix of Age-encrypted files
	ageHeader = "age-encryption.org"

	// markerFile indicates encryption is enabled
	markerFile = ".encrypted"

	// verifyFile is used to validate the password
	verifyFile = ".encryption-verify"

	verifyMagic = `{"magic":"finanzas-encryption-verify","version":1}`

	valueExt = ".json"
)

// FileStore keeps each key in <dir>/<key>.json, written atomically and
// age-encrypted with a passphrase once encryption is enabled.
type FileStore struct {
	dir       string
	encrypted bool
	identity  *age.ScryptIdentity
	recipient *age.ScryptRecipient
	mu        sync.RWMutex
}

// NewFileStore opens (and creates) a file store rooted at dir
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store needs a directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &FileStore{dir: dir}
	if _, err := os.Stat(filepath.Join(dir, markerFile)); err == nil {
		s.encrypted = true
	}
	return s, nil
}

// Dir returns the data directory
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+valueExt)
}

// Get reads a value, decrypting it when needed
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	if isAgeEncrypted(data) {
		if s.identity == nil {
			return nil, ErrLocked
		}
		return open(data, s.identity)
	}
	return data, nil
}

// Set writes a value, encrypting it when encryption is enabled
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	if err := validKey(key); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.encrypted {
		if s.recipient == nil {
			return ErrLocked
		}
		sealed, err := seal(value, s.recipient)
		if err != nil {
			return fmt.Errorf("encrypt %s: %w", key, err)
		}
		value = sealed
	}
	return atomicWrite(s.path(key), value, 0600)
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close is a no-op for files
func (s *FileStore) Close() error { return nil }

// IsEncrypted returns true if the data directory is encrypted
func (s *FileStore) IsEncrypted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.encrypted
}

// IsUnlocked returns true if the store can be read
func (s *FileStore) IsUnlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.encrypted || s.identity != nil
}

// Unlock verifies the password and keeps the key in memory
func (s *FileStore) Unlock(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.encrypted {
		return nil
	}

	identity, err := s.verify(password)
	if err != nil {
		return err
	}
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return fmt.Errorf("create recipient: %w", err)
	}

	s.identity = identity
	s.recipient = recipient
	return nil
}

// Lock clears the encryption key from memory
func (s *FileStore) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = nil
	s.recipient = nil
}

// verify checks password against the verification file. Caller holds mu.
func (s *FileStore) verify(password string) (*age.ScryptIdentity, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	sealed, err := os.ReadFile(filepath.Join(s.dir, verifyFile))
	if err != nil {
		return nil, fmt.Errorf("read verification file: %w", err)
	}

	plain, err := open(sealed, identity)
	if err != nil || string(plain) != verifyMagic {
		return nil, fmt.Errorf("incorrect password")
	}
	return identity, nil
}

// atomicWrite writes data to a file atomically using a temp file
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// isAgeEncrypted checks if data starts with the Age encryption header
func isAgeEncrypted(data []byte) bool {
	return len(data) > len(ageHeader) && string(data[:len(ageHeader)]) == ageHeader
}
