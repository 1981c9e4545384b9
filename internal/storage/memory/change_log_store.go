package memory

import (
	"context"
	"sort"
	"sync"

	"solana-copybot/internal/domain"
	"solana-copybot/internal/storage"
)

// ChangeLogStore is an in-memory implementation of storage.ChangeLogStore.
type ChangeLogStore struct {
	mu      sync.RWMutex
	entries []*domain.ChangeLogEntry
}

// NewChangeLogStore creates a new in-memory change log store.
func NewChangeLogStore() *ChangeLogStore {
	return &ChangeLogStore{}
}

// Compile-time interface check.
var _ storage.ChangeLogStore = (*ChangeLogStore)(nil)

// InsertBulk adds flattened change entries for one detection run.
func (s *ChangeLogStore) InsertBulk(_ context.Context, entries []*domain.ChangeLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if e == nil || e.Mint == "" || e.WalletAddress == "" {
			return storage.ErrInvalidInput
		}
		copy := *e
		s.entries = append(s.entries, &copy)
	}
	return nil
}

// GetByWallet retrieves all entries for a wallet, ordered by detected_at ASC.
func (s *ChangeLogStore) GetByWallet(_ context.Context, wallet string) ([]*domain.ChangeLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.ChangeLogEntry
	for _, e := range s.entries {
		if e.WalletAddress == wallet {
			copy := *e
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DetectedAt < out[j].DetectedAt
	})
	return out, nil
}
