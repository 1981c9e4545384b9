package clickhouse

import (
	"context"
	"fmt"

	"solana-copybot/internal/domain"
	"solana-copybot/internal/storage"
)

// ChangeLogStore implements storage.ChangeLogStore using ClickHouse.
type ChangeLogStore struct {
	conn *Conn
}

// NewChangeLogStore creates a new ChangeLogStore.
func NewChangeLogStore(conn *Conn) *ChangeLogStore {
	return &ChangeLogStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ChangeLogStore = (*ChangeLogStore)(nil)

// InsertBulk adds flattened change entries for one detection run.
func (s *ChangeLogStore) InsertBulk(ctx context.Context, entries []*domain.ChangeLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO change_log (
			wallet_address, mint, kind,
			previous_raw, current_raw, pct_change,
			symbol, name, detected_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range entries {
		err = batch.Append(
			e.WalletAddress, e.Mint, string(e.Kind),
			e.PreviousRaw, e.CurrentRaw, e.PctChange,
			e.Symbol, e.Name, e.DetectedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByWallet retrieves all entries for a wallet, ordered by detected_at ASC.
func (s *ChangeLogStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.ChangeLogEntry, error) {
	query := `
		SELECT
			wallet_address, mint, kind,
			previous_raw, current_raw, pct_change,
			symbol, name, detected_at
		FROM change_log
		WHERE wallet_address = ?
		ORDER BY detected_at ASC, mint ASC
	`

	rows, err := s.conn.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("query by wallet: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ChangeLogEntry
	for rows.Next() {
		var (
			e    domain.ChangeLogEntry
			kind string
		)
		err := rows.Scan(
			&e.WalletAddress, &e.Mint, &kind,
			&e.PreviousRaw, &e.CurrentRaw, &e.PctChange,
			&e.Symbol, &e.Name, &e.DetectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan change log row: %w", err)
		}
		e.Kind = domain.ChangeKind(kind)
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate change log rows: %w", err)
	}

	return entries, nil
}
