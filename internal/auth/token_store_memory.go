package auth

import (
	"context"
	"sync"
	"time"
)

// NewInMemoryTokenStore returns a TokenStore backed by an in-memory map.
// Entries live for the process lifetime only.
func NewInMemoryTokenStore() *InMemoryTokenStore {
	return &InMemoryTokenStore{records: make(map[string]RefreshRecord)}
}

// InMemoryTokenStore implements TokenStore with a mutex-guarded map.
type InMemoryTokenStore struct {
	mu      sync.RWMutex
	records map[string]RefreshRecord
}

// Save persists the provided allow-list entry.
func (s *InMemoryTokenStore) Save(_ context.Context, record RefreshRecord) error {
	s.mu.Lock()
	s.records[record.TokenID] = record
	s.mu.Unlock()
	return nil
}

// Find retrieves an entry by token identifier. Expired entries are evicted
// lazily and reported as missing.
func (s *InMemoryTokenStore) Find(_ context.Context, tokenID string) (RefreshRecord, error) {
	s.mu.RLock()
	record, ok := s.records[tokenID]
	s.mu.RUnlock()
	if !ok {
		return RefreshRecord{}, ErrTokenNotAllowed
	}

	if time.Now().UTC().After(record.ExpiresAt) {
		s.mu.Lock()
		delete(s.records, tokenID)
		s.mu.Unlock()
		return RefreshRecord{}, ErrTokenNotAllowed
	}

	return record, nil
}

// Delete removes the entry associated with the token identifier. The check
// and the removal happen under one lock; a missing entry reports
// ErrTokenNotAllowed so callers can tell who actually retired it.
func (s *InMemoryTokenStore) Delete(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[tokenID]; !ok {
		return ErrTokenNotAllowed
	}
	delete(s.records, tokenID)
	return nil
}

// Has reports whether a token identifier is allow-listed. Useful for tests.
func (s *InMemoryTokenStore) Has(tokenID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[tokenID]
	return ok
}
