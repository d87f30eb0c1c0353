// Package session owns the persisted Session triple: access token, refresh
// token, and cached user profile. Stores never validate what they hold; expiry
// and consistency checks belong to the callers.
package session

import (
	"sync"

	"github.com/presencepro/presencepro-go/internal/types"
)

// Store is the single source of truth for the Session. Save persists the
// triple atomically, Clear removes it unconditionally, Read returns whatever
// is present (nil when absent).
//
// The auth-error slot is a one-shot message recorded when a session is
// terminated, taken once by whatever renders the next login prompt.
type Store interface {
	Read() (*types.Session, error)
	Save(s *types.Session) error
	Clear() error

	SetAuthError(msg string)
	TakeAuthError() string
}

// MemoryStore is an in-process Store. It backs tests and programs that do not
// want credentials on disk.
type MemoryStore struct {
	mu      sync.Mutex
	session *types.Session
	authErr string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Read returns the current session, or nil if none is held.
func (m *MemoryStore) Read() (*types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	cp := *m.session
	return &cp, nil
}

// Save replaces the held session wholesale.
func (m *MemoryStore) Save(s *types.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.session = &cp
	return nil
}

// Clear drops the session. Idempotent.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

// SetAuthError records a one-shot auth error message.
func (m *MemoryStore) SetAuthError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authErr = msg
}

// TakeAuthError returns the recorded message and deletes it.
func (m *MemoryStore) TakeAuthError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := m.authErr
	m.authErr = ""
	return msg
}
