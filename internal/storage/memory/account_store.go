package memory

import (
	"context"
	"sync"

	"solana-predictor/internal/storage"
)

// AccountStore is an in-memory implementation of storage.AccountStore.
type AccountStore struct {
	mu   sync.RWMutex
	data map[string]*storage.AccountRecord // keyed by pubkey
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		data: make(map[string]*storage.AccountRecord),
	}
}

// Put stores the record, replacing any previous buffer for the pubkey.
func (s *AccountStore) Put(_ context.Context, rec *storage.AccountRecord) error {
	if rec == nil || rec.Pubkey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	recCopy := *rec
	recCopy.Data = append([]byte(nil), rec.Data...)
	s.data[rec.Pubkey] = &recCopy
	return nil
}

// Get retrieves the latest buffer for a pubkey. Returns ErrNotFound if the
// account was never stored.
func (s *AccountStore) Get(_ context.Context, pubkey string) (*storage.AccountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.data[pubkey]
	if !exists {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	recCopy := *rec
	recCopy.Data = append([]byte(nil), rec.Data...)
	return &recCopy, nil
}

// Verify interface compliance at compile time.
var _ storage.AccountStore = (*AccountStore)(nil)
