package clickhouse

import (
	"context"
	"fmt"

	"solana-copybot/internal/domain"
	"solana-copybot/internal/idhash"
	"solana-copybot/internal/storage"
)

// IntentStore implements storage.IntentStore using ClickHouse.
type IntentStore struct {
	conn *Conn
}

// NewIntentStore creates a new IntentStore.
func NewIntentStore(conn *Conn) *IntentStore {
	return &IntentStore{conn: conn}
}

// Compile-time interface check.
var _ storage.IntentStore = (*IntentStore)(nil)

// Insert adds a new intent. Returns ErrDuplicateKey if an intent with the
// same identity was already recorded.
func (s *IntentStore) Insert(ctx context.Context, intent *domain.TradeIntent) error {
	id := intentID(intent)

	// MergeTree does not enforce uniqueness, so check before inserting.
	exists, err := s.exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO trade_intents (
			intent_id, agent_name, mode, action,
			token_name, token_symbol, mint_address, wallet_address,
			amount_usd, sell_fraction, entry_price,
			exit_price, pnl_value, pnl_percent,
			ai_analysis, created_at
		) VALUES (
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?,
			?, ?
		)
	`

	err = s.conn.Exec(ctx, query,
		id, intent.AgentName, string(intent.Mode), string(intent.Action),
		intent.TokenName, intent.TokenSymbol, intent.MintAddress, intent.WalletAddress,
		intent.AmountUSD, intent.SellFraction, intent.EntryPrice,
		intent.ExitPrice, intent.PnLValue, intent.PnLPercent,
		intent.AIAnalysis, intent.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade intent: %w", err)
	}
	return nil
}

// InsertBulk adds multiple intents atomically. Fails entire batch on any duplicate.
func (s *IntentStore) InsertBulk(ctx context.Context, intents []*domain.TradeIntent) error {
	if len(intents) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{})
	for _, intent := range intents {
		id := intentID(intent)
		if _, exists := seen[id]; exists {
			return storage.ErrDuplicateKey
		}
		seen[id] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, intent := range intents {
		exists, err := s.exists(ctx, intentID(intent))
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trade_intents (
			intent_id, agent_name, mode, action,
			token_name, token_symbol, mint_address, wallet_address,
			amount_usd, sell_fraction, entry_price,
			exit_price, pnl_value, pnl_percent,
			ai_analysis, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, intent := range intents {
		err = batch.Append(
			intentID(intent), intent.AgentName, string(intent.Mode), string(intent.Action),
			intent.TokenName, intent.TokenSymbol, intent.MintAddress, intent.WalletAddress,
			intent.AmountUSD, intent.SellFraction, intent.EntryPrice,
			intent.ExitPrice, intent.PnLValue, intent.PnLPercent,
			intent.AIAnalysis, intent.CreatedAt,
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

// GetByMint retrieves all intents for a mint, ordered by created_at ASC.
func (s *IntentStore) GetByMint(ctx context.Context, mint string) ([]*domain.TradeIntent, error) {
	query := selectIntents + `
		WHERE mint_address = ?
		ORDER BY created_at ASC
	`

	rows, err := s.conn.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("query by mint: %w", err)
	}
	defer rows.Close()

	return scanIntents(rows)
}

// GetByTimeRange retrieves intents created within [start, end] inclusive.
func (s *IntentStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TradeIntent, error) {
	query := selectIntents + `
		WHERE created_at >= ? AND created_at <= ?
		ORDER BY created_at ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanIntents(rows)
}

const selectIntents = `
	SELECT
		agent_name, mode, action,
		token_name, token_symbol, mint_address, wallet_address,
		amount_usd, sell_fraction, entry_price,
		exit_price, pnl_value, pnl_percent,
		ai_analysis, created_at
	FROM trade_intents
`

// exists checks if an intent with the given id exists.
func (s *IntentStore) exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT count(*) FROM trade_intents WHERE intent_id = ?`

	var count uint64
	err := s.conn.QueryRow(ctx, query, id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// intentID derives the deterministic identity for a trade intent.
func intentID(intent *domain.TradeIntent) string {
	return idhash.ComputeIntentID(
		string(intent.Mode), string(intent.Action),
		intent.MintAddress, intent.WalletAddress, intent.CreatedAt,
	)
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanIntents scans multiple rows into a slice.
func scanIntents(rows chRows) ([]*domain.TradeIntent, error) {
	var intents []*domain.TradeIntent

	for rows.Next() {
		var (
			in           domain.TradeIntent
			mode, action string
		)
		err := rows.Scan(
			&in.AgentName, &mode, &action,
			&in.TokenName, &in.TokenSymbol, &in.MintAddress, &in.WalletAddress,
			&in.AmountUSD, &in.SellFraction, &in.EntryPrice,
			&in.ExitPrice, &in.PnLValue, &in.PnLPercent,
			&in.AIAnalysis, &in.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan intent row: %w", err)
		}
		in.Mode = domain.ExecutionMode(mode)
		in.Action = domain.Action(action)
		intents = append(intents, &in)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intent rows: %w", err)
	}

	return intents, nil
}
