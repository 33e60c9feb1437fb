package auth

import (
	"sync"
)

// MemoryStore keeps session blobs in process memory. Sessions are lost
// on restart. The error fields let tests inject failures.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte

	GetError    error
	PutError    error
	DeleteError error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

func (m *MemoryStore) Get(username string) ([]byte, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	if username == "" {
		return nil, ErrInvalidUsername
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	blob, ok := m.sessions[username]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (m *MemoryStore) Put(username string, blob []byte) error {
	if m.PutError != nil {
		return m.PutError
	}
	if username == "" {
		return ErrInvalidUsername
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[username] = append([]byte(nil), blob...)
	return nil
}

func (m *MemoryStore) Delete(username string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[username]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, username)
	return nil
}

// Len returns the number of stored sessions
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
