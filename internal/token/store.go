// Package token persists the opaque authentication token. The token is the
// only durable state this client owns; it is written exclusively by the
// session layer and read once at startup restore.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store is the durable token backend. Load returns the empty string when no
// token is persisted; absence of the key is equivalent to "no session".
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// FileStore keeps the token in a small JSON file, created with owner-only
// permissions.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type tokenRecord struct {
	Token string `json:"token"`
}

func (s *FileStore) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}

	var record tokenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		// An unreadable file is the same as no session.
		return "", nil
	}
	return record.Token, nil
}

func (s *FileStore) Save(ctx context.Context, tok string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	data, err := json.Marshal(tokenRecord{Token: tok})
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
