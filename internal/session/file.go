package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/presencepro/presencepro-go/internal/types"
)

// FileStore persists the session as a JSON file with restrictive permissions.
// The whole triple is written in one WriteFile call, so a reader never
// observes a session with only one of the two tokens.
//
// The auth-error slot is not persisted; it is held in memory and lasts only
// for the process lifetime.
type FileStore struct {
	path string

	mu      sync.Mutex
	authErr string
}

// NewFileStore creates a store backed by the file at path. The file does not
// need to exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Read loads the session from disk. A missing file means no session.
func (f *FileStore) Read() (*types.Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read session file")
	}

	var s types.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session")
	}
	return &s, nil
}

// Save writes the session to disk with 0600 permissions.
func (f *FileStore) Save(s *types.Session) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrap(err, "failed to create session directory")
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}

	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write session file")
	}
	return nil
}

// Clear deletes the session file. Idempotent.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove session file")
	}
	return nil
}

// SetAuthError records a one-shot auth error message.
func (f *FileStore) SetAuthError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authErr = msg
}

// TakeAuthError returns the recorded message and deletes it.
func (f *FileStore) TakeAuthError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := f.authErr
	f.authErr = ""
	return msg
}
