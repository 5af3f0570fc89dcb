// Package storage provides the session-scoped key/value capability the
// resolution cache and the transfer failure counter are written against.
package storage

import "sync"

// Store is the key/value capability. Values live for the duration of a
// browsing session: they survive page reloads but not a new session, which
// maps to Clear being called when the session ends.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
	Clear()
}

// SessionStore is a thread-safe in-memory Store.
type SessionStore struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ Store = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return &SessionStore{data: make(map[string]string)}
}

func (s *SessionStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	return v, ok
}

func (s *SessionStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
}

func (s *SessionStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
}

func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]string)
}

// Len reports the number of stored keys.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}
