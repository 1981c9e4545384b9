package storage

import (
	"context"

	"solana-copybot/internal/domain"
)

// SnapshotStore persists the last-known token holdings per tracked wallet.
// Snapshots are written whole; the previous snapshot is superseded, never
// merged.
type SnapshotStore interface {
	// Save persists a full snapshot captured at the given timestamp (ms).
	Save(ctx context.Context, snapshot domain.WalletSnapshot, capturedAt int64) error

	// Latest retrieves the most recent snapshot and its capture timestamp.
	// Returns ErrNotFound when no snapshot has been saved yet.
	Latest(ctx context.Context) (domain.WalletSnapshot, int64, error)
}

// IntentStore provides append-only trade-intent audit history.
type IntentStore interface {
	// Insert adds an intent. Returns ErrDuplicateKey if the same intent
	// (mode, action, mint, wallet, created_at) was already recorded.
	Insert(ctx context.Context, intent *domain.TradeIntent) error

	// InsertBulk adds multiple intents. Fails the entire batch on any duplicate.
	InsertBulk(ctx context.Context, intents []*domain.TradeIntent) error

	// GetByMint retrieves all intents for a mint, ordered by created_at ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.TradeIntent, error)

	// GetByTimeRange retrieves intents created within [start, end] (inclusive, ms).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TradeIntent, error)
}

// ChangeLogStore provides append-only history of detected wallet changes.
type ChangeLogStore interface {
	// InsertBulk adds flattened change entries for one detection run.
	InsertBulk(ctx context.Context, entries []*domain.ChangeLogEntry) error

	// GetByWallet retrieves all entries for a wallet, ordered by detected_at ASC.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.ChangeLogEntry, error)
}
