package memory

import (
	"context"
	"sort"
	"sync"

	"solana-copybot/internal/domain"
	"solana-copybot/internal/idhash"
	"solana-copybot/internal/storage"
)

// IntentStore is an in-memory implementation of storage.IntentStore.
type IntentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeIntent // keyed by intent_id
}

// NewIntentStore creates a new in-memory intent store.
func NewIntentStore() *IntentStore {
	return &IntentStore{
		data: make(map[string]*domain.TradeIntent),
	}
}

// Compile-time interface check.
var _ storage.IntentStore = (*IntentStore)(nil)

func intentKey(intent *domain.TradeIntent) string {
	return idhash.ComputeIntentID(
		string(intent.Mode),
		string(intent.Action),
		intent.MintAddress,
		intent.WalletAddress,
		intent.CreatedAt,
	)
}

// Insert adds an intent. Returns ErrDuplicateKey if already recorded.
func (s *IntentStore) Insert(_ context.Context, intent *domain.TradeIntent) error {
	if intent == nil || intent.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := intentKey(intent)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *intent
	s.data[key] = &copy
	return nil
}

// InsertBulk adds multiple intents. Fails the entire batch on any duplicate.
func (s *IntentStore) InsertBulk(_ context.Context, intents []*domain.TradeIntent) error {
	if len(intents) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(intents))
	for _, intent := range intents {
		if intent == nil || intent.MintAddress == "" {
			return storage.ErrInvalidInput
		}
		key := intentKey(intent)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, intent := range intents {
		copy := *intent
		s.data[intentKey(intent)] = &copy
	}
	return nil
}

// GetByMint retrieves all intents for a mint, ordered by created_at ASC.
func (s *IntentStore) GetByMint(_ context.Context, mint string) ([]*domain.TradeIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.TradeIntent
	for _, intent := range s.data {
		if intent.MintAddress == mint {
			copy := *intent
			out = append(out, &copy)
		}
	}
	sortIntents(out)
	return out, nil
}

// GetByTimeRange retrieves intents created within [start, end] (inclusive).
func (s *IntentStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.TradeIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.TradeIntent
	for _, intent := range s.data {
		if intent.CreatedAt >= start && intent.CreatedAt <= end {
			copy := *intent
			out = append(out, &copy)
		}
	}
	sortIntents(out)
	return out, nil
}

func sortIntents(intents []*domain.TradeIntent) {
	sort.Slice(intents, func(i, j int) bool {
		return intents[i].CreatedAt < intents[j].CreatedAt
	})
}
