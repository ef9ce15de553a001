package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"
)

// MinPasswordLength is the shortest accepted encryption password
const MinPasswordLength = 8

// EnableEncryption encrypts every stored value with the given password.
// On failure, values already converted are decrypted again.
func (s *FileStore) EnableEncryption(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encrypted {
		return fmt.Errorf("encryption is already enabled")
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return fmt.Errorf("create recipient: %w", err)
	}
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}

	verifyPath := filepath.Join(s.dir, verifyFile)
	sealed, err := seal([]byte(verifyMagic), recipient)
	if err != nil {
		return fmt.Errorf("encrypt verification file: %w", err)
	}
	if err := os.WriteFile(verifyPath, sealed, 0600); err != nil {
		return fmt.Errorf("write verification file: %w", err)
	}

	files, err := s.valueFiles()
	if err != nil {
		os.Remove(verifyPath)
		return err
	}

	var done []string
	for _, path := range files {
		if err := rewrite(path, func(data []byte) ([]byte, error) {
			if isAgeEncrypted(data) {
				return nil, nil
			}
			return seal(data, recipient)
		}); err != nil {
			s.rollback(done, identity)
			os.Remove(verifyPath)
			return fmt.Errorf("encrypt %s: %w", filepath.Base(path), err)
		}
		done = append(done, path)
	}

	if err := os.WriteFile(filepath.Join(s.dir, markerFile), []byte("encrypted"), 0644); err != nil {
		return fmt.Errorf("create marker file: %w", err)
	}

	s.encrypted = true
	s.identity = identity
	s.recipient = recipient
	return nil
}

// DisableEncryption decrypts every stored value (requires current password)
func (s *FileStore) DisableEncryption(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.encrypted {
		return fmt.Errorf("encryption is not enabled")
	}

	identity, err := s.verify(password)
	if err != nil {
		return err
	}

	files, err := s.valueFiles()
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := rewrite(path, func(data []byte) ([]byte, error) {
			if !isAgeEncrypted(data) {
				return nil, nil
			}
			return open(data, identity)
		}); err != nil {
			return fmt.Errorf("decrypt %s: %w", filepath.Base(path), err)
		}
	}

	os.Remove(filepath.Join(s.dir, markerFile))
	os.Remove(filepath.Join(s.dir, verifyFile))

	s.encrypted = false
	s.identity = nil
	s.recipient = nil
	return nil
}

// valueFiles lists the stored values. Only the top level holds keys.
func (s *FileStore) valueFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "*"+valueExt))
	if err != nil {
		return nil, fmt.Errorf("scan data directory: %w", err)
	}
	return files, nil
}

// rewrite transforms a file in place. A nil result from fn leaves it untouched.
func rewrite(path string, fn func([]byte) ([]byte, error)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := fn(data)
	if err != nil || out == nil {
		return err
	}
	return atomicWrite(path, out, 0600)
}

func (s *FileStore) rollback(files []string, identity *age.ScryptIdentity) {
	for _, path := range files {
		rewrite(path, func(data []byte) ([]byte, error) {
			if !isAgeEncrypted(data) {
				return nil, nil
			}
			return open(data, identity)
		})
	}
}

func seal(data []byte, recipient *age.ScryptRecipient) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err == nil {
		if _, err = w.Write(data); err == nil {
			err = w.Close()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	return buf.Bytes(), nil
}

func open(data []byte, identity *age.ScryptIdentity) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
