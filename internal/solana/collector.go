package solana

import (
	"context"
	"fmt"
	"log/slog"

	"solana-copybot/internal/domain"
)

// PriceQuoter quotes token prices in USD. A failed quote values the token
// at zero rather than failing collection.
type PriceQuoter interface {
	PriceOf(ctx context.Context, mint string) (float64, error)
}

// MetadataResolver resolves symbol and name for a mint.
type MetadataResolver interface {
	Resolve(ctx context.Context, mint string) (*TokenMetadata, error)
}

// Collector captures per-wallet token holdings over RPC and applies the
// configured relevance filters. One failed wallet does not fail the
// snapshot; its holdings are simply absent this cycle.
type Collector struct {
	rpc      RPCClient
	prices   PriceQuoter
	metadata MetadataResolver
	settings domain.Settings
	logger   *slog.Logger
}

// NewCollector creates a Collector. prices and metadata may be nil; holdings
// are then unpriced and unnamed.
func NewCollector(rpc RPCClient, prices PriceQuoter, metadata MetadataResolver, settings domain.Settings, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		rpc:      rpc,
		prices:   prices,
		metadata: metadata,
		settings: settings,
		logger:   logger,
	}
}

// Collect captures the current holdings of every tracked wallet.
func (c *Collector) Collect(ctx context.Context, capturedAt int64) (domain.WalletSnapshot, error) {
	snapshot := make(domain.WalletSnapshot)

	for _, wallet := range c.settings.WalletsToTrack {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		holdings, err := c.collectWallet(ctx, wallet, capturedAt)
		if err != nil {
			c.logger.Error("wallet collection failed, skipping this cycle",
				"wallet", wallet, "error", err)
			continue
		}
		snapshot[wallet] = holdings
	}

	return snapshot, nil
}

func (c *Collector) collectWallet(ctx context.Context, wallet string, capturedAt int64) ([]*domain.TokenHolding, error) {
	accounts, err := c.fetchAccounts(ctx, wallet)
	if err != nil {
		return nil, err
	}

	holdings := make([]*domain.TokenHolding, 0, len(accounts))
	var walletTotal float64

	for _, acct := range accounts {
		if acct.RawAmount == 0 {
			continue
		}
		if c.settings.IsExcluded(acct.Mint) || !c.settings.IsMonitored(acct.Mint) {
			continue
		}

		h := &domain.TokenHolding{
			Mint:          acct.Mint,
			Amount:        acct.UIAmount,
			RawAmount:     acct.RawAmount,
			Decimals:      acct.Decimals,
			Symbol:        "UNK",
			Name:          "Unknown Token",
			WalletAddress: wallet,
			CapturedAt:    capturedAt,
		}

		if c.prices != nil {
			if price, err := c.prices.PriceOf(ctx, acct.Mint); err == nil {
				h.PriceUSD = price
			}
		}

		if c.metadata != nil {
			if md, err := c.metadata.Resolve(ctx, acct.Mint); err == nil && md != nil {
				h.Symbol = md.Symbol
				h.Name = md.Name
			}
		}

		walletTotal += h.USDValue()
		holdings = append(holdings, h)
	}

	return c.filterRelevant(holdings, walletTotal), nil
}

// fetchAccounts reads token accounts either across the whole wallet
// (dynamic mode) or one monitored mint at a time.
func (c *Collector) fetchAccounts(ctx context.Context, wallet string) ([]TokenAccount, error) {
	if c.settings.DynamicMode {
		accounts, err := c.rpc.GetTokenAccountsByOwner(ctx, wallet)
		if err != nil {
			return nil, fmt.Errorf("get token accounts: %w", err)
		}
		return accounts, nil
	}

	var accounts []TokenAccount
	for _, mint := range c.settings.MonitoredTokens {
		acct, err := c.rpc.GetTokenAccountByMint(ctx, wallet, mint)
		if err != nil {
			return nil, fmt.Errorf("get token account for %s: %w", mint, err)
		}
		if acct != nil {
			accounts = append(accounts, *acct)
		}
	}
	return accounts, nil
}

// filterRelevant drops positions too small to mirror. Unpriced holdings
// pass through: a missing quote is not evidence the position is dust.
func (c *Collector) filterRelevant(holdings []*domain.TokenHolding, walletTotal float64) []*domain.TokenHolding {
	if !c.settings.DynamicMode {
		return holdings
	}

	kept := holdings[:0]
	for _, h := range holdings {
		value := h.USDValue()
		if h.PriceUSD > 0 && value < c.settings.MinTokenValueUSD {
			continue
		}
		if c.settings.PortfolioPctFilter > 0 && walletTotal > 0 && h.PriceUSD > 0 {
			if value/walletTotal*100 < c.settings.PortfolioPctFilter {
				continue
			}
		}
		kept = append(kept, h)
	}
	return kept
}
