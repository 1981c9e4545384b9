package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-copybot/internal/domain"
	"solana-copybot/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
// Every capture writes one snapshot_runs row plus one wallet_holdings row
// per non-zero position; Latest reads back the newest run whole.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Save persists a full snapshot atomically.
func (s *SnapshotStore) Save(ctx context.Context, snapshot domain.WalletSnapshot, capturedAt int64) error {
	if snapshot == nil {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO snapshot_runs (captured_at, wallet_count) VALUES ($1, $2)`,
		capturedAt, len(snapshot),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert snapshot run: %w", err)
	}

	query := `
		INSERT INTO wallet_holdings (
			captured_at, wallet_address, mint, amount, raw_amount, decimals, symbol, name, price_usd
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for wallet, holdings := range snapshot {
		for _, h := range holdings {
			_, err := tx.Exec(ctx, query,
				capturedAt,
				wallet,
				h.Mint,
				h.Amount,
				h.RawAmount,
				h.Decimals,
				h.Symbol,
				h.Name,
				h.PriceUSD,
			)
			if err != nil {
				if isDuplicateKeyError(err) {
					return storage.ErrDuplicateKey
				}
				return fmt.Errorf("insert holding: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Latest retrieves the most recent snapshot and its capture timestamp.
func (s *SnapshotStore) Latest(ctx context.Context) (domain.WalletSnapshot, int64, error) {
	var capturedAt int64
	err := s.pool.QueryRow(ctx,
		`SELECT captured_at FROM snapshot_runs ORDER BY captured_at DESC LIMIT 1`,
	).Scan(&capturedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, storage.ErrNotFound
		}
		return nil, 0, fmt.Errorf("query latest run: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT wallet_address, mint, amount, raw_amount, decimals, symbol, name, price_usd
		FROM wallet_holdings
		WHERE captured_at = $1
		ORDER BY wallet_address, mint
	`, capturedAt)
	if err != nil {
		return nil, 0, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	snapshot := make(domain.WalletSnapshot)
	for rows.Next() {
		h := &domain.TokenHolding{CapturedAt: capturedAt}
		if err := rows.Scan(
			&h.WalletAddress,
			&h.Mint,
			&h.Amount,
			&h.RawAmount,
			&h.Decimals,
			&h.Symbol,
			&h.Name,
			&h.PriceUSD,
		); err != nil {
			return nil, 0, fmt.Errorf("scan holding: %w", err)
		}
		snapshot[h.WalletAddress] = append(snapshot[h.WalletAddress], h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate holdings: %w", err)
	}

	return snapshot, capturedAt, nil
}
