package memory

import (
	"context"
	"sync"

	"solana-copybot/internal/domain"
	"solana-copybot/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu         sync.RWMutex
	latest     domain.WalletSnapshot
	capturedAt int64
	hasData    bool
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Save persists a full snapshot, superseding the previous one.
func (s *SnapshotStore) Save(_ context.Context, snapshot domain.WalletSnapshot, capturedAt int64) error {
	if snapshot == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = copySnapshot(snapshot)
	s.capturedAt = capturedAt
	s.hasData = true
	return nil
}

// Latest returns the most recent snapshot. Returns ErrNotFound when no
// snapshot has been saved yet.
func (s *SnapshotStore) Latest(_ context.Context) (domain.WalletSnapshot, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasData {
		return nil, 0, storage.ErrNotFound
	}
	return copySnapshot(s.latest), s.capturedAt, nil
}

// copySnapshot deep-copies a snapshot so callers cannot mutate stored state.
func copySnapshot(snapshot domain.WalletSnapshot) domain.WalletSnapshot {
	out := make(domain.WalletSnapshot, len(snapshot))
	for wallet, holdings := range snapshot {
		copied := make([]*domain.TokenHolding, len(holdings))
		for i, h := range holdings {
			held := *h
			copied[i] = &held
		}
		out[wallet] = copied
	}
	return out
}
