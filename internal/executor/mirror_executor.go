package executor

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"solana-copybot/internal/domain"
)

// MirrorExecutor replicates a tracked wallet's moves directly, without AI
// confidence. It is the fallback strategy when no AI collaborator is
// available or AI-mode execution fails mid-cycle.
type MirrorExecutor struct {
	placer    OrderPlacer
	portfolio PortfolioReader
	prices    PriceSource
	settings  domain.Settings
	logger    *slog.Logger
	agentName string

	now func() int64
}

// NewMirrorExecutor creates a MirrorExecutor bound to an order back-end.
func NewMirrorExecutor(placer OrderPlacer, portfolio PortfolioReader, prices PriceSource, settings domain.Settings, agentName string, logger *slog.Logger) *MirrorExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorExecutor{
		placer:    placer,
		portfolio: portfolio,
		prices:    prices,
		settings:  settings,
		logger:    logger,
		agentName: agentName,
		now:       func() int64 { return time.Now().UnixMilli() },
	}
}

// Execute mirrors one wallet's change record. A single token's failure is
// logged and does not abort the remaining tokens; the returned intents cover
// the trades that succeeded. Tokens are processed in deterministic mint
// order within each category.
func (e *MirrorExecutor) Execute(ctx context.Context, wallet string, changes *domain.ChangeRecord) []*domain.TradeIntent {
	if changes == nil || changes.Empty() {
		return nil
	}

	var intents []*domain.TradeIntent

	for _, mint := range sortedKeys(changes.NewTokens) {
		if ctx.Err() != nil {
			return intents
		}
		if intent := e.mirrorNew(ctx, wallet, mint, changes.NewTokens[mint]); intent != nil {
			intents = append(intents, intent)
		}
	}

	for _, mint := range sortedKeys(changes.RemovedTokens) {
		if ctx.Err() != nil {
			return intents
		}
		if intent := e.mirrorRemoved(ctx, wallet, mint, changes.RemovedTokens[mint]); intent != nil {
			intents = append(intents, intent)
		}
	}

	for _, mint := range sortedKeys(changes.ModifiedTokens) {
		if ctx.Err() != nil {
			return intents
		}
		if intent := e.mirrorModified(ctx, wallet, mint, changes.ModifiedTokens[mint]); intent != nil {
			intents = append(intents, intent)
		}
	}

	return intents
}

// mirrorNew buys a scaled copy of a position the wallet just opened.
func (e *MirrorExecutor) mirrorNew(ctx context.Context, wallet, mint string, tc domain.TokenChange) *domain.TradeIntent {
	if !e.settings.AutoBuyNew || e.settings.IsExcluded(mint) {
		return nil
	}

	walletUSD, price := e.walletPositionUSD(ctx, mint, tc.UIAmount)
	amount := walletUSD * e.settings.MirrorPositionScale
	if amount < e.settings.MinPositionUSD {
		e.logger.Info("mirror buy below dust threshold, skipping",
			"wallet", wallet, "mint", mint, "amount_usd", amount)
		return nil
	}

	if err := e.placer.Buy(ctx, mint, amount); err != nil {
		e.logger.Error("mirror buy failed",
			"wallet", wallet, "mint", mint, "amount_usd", amount, "error", err)
		return nil
	}

	e.logger.Info("mirror buy placed",
		"wallet", wallet, "mint", mint, "amount_usd", amount)
	return e.intent(domain.ActionBuy, wallet, mint, tc.Symbol, tc.Name, amount, 0, price)
}

// mirrorRemoved closes our position after the wallet sold out entirely.
func (e *MirrorExecutor) mirrorRemoved(ctx context.Context, wallet, mint string, tc domain.TokenChange) *domain.TradeIntent {
	if !e.settings.AutoSellRemoved || e.settings.IsExcluded(mint) {
		return nil
	}

	current, err := e.portfolio.TokenBalanceUSD(ctx, mint)
	if err != nil {
		e.logger.Error("mirror sell position read failed",
			"wallet", wallet, "mint", mint, "error", err)
		return nil
	}
	if current <= 0 {
		return nil
	}

	if err := e.placer.SellAll(ctx, mint); err != nil {
		e.logger.Error("mirror sell failed",
			"wallet", wallet, "mint", mint, "error", err)
		return nil
	}

	e.logger.Info("mirror sell placed",
		"wallet", wallet, "mint", mint, "amount_usd", current)
	return e.intent(domain.ActionSell, wallet, mint, tc.Symbol, tc.Name, current, 1.0, 0)
}

// mirrorModified scales our position in the direction the wallet moved.
func (e *MirrorExecutor) mirrorModified(ctx context.Context, wallet, mint string, mod domain.ModifiedToken) *domain.TradeIntent {
	if e.settings.IsExcluded(mint) || mod.PctChange == 0 {
		return nil
	}

	current, err := e.portfolio.TokenBalanceUSD(ctx, mint)
	if err != nil {
		e.logger.Error("mirror adjust position read failed",
			"wallet", wallet, "mint", mint, "error", err)
		return nil
	}
	if current <= 0 {
		return nil
	}

	if mod.PctChange > 0 {
		amount := current * (mod.PctChange / 100)

		// Cap so the position never exceeds its allocation share.
		maxAlloc := e.settings.MaxTokenAllocation * e.settings.PortfolioSizeUSD
		if current+amount > maxAlloc {
			amount = maxAlloc - current
		}
		if amount <= 0 {
			e.logger.Info("position at allocation cap, no buy",
				"wallet", wallet, "mint", mint, "current_usd", current)
			return nil
		}

		if err := e.placer.Buy(ctx, mint, amount); err != nil {
			e.logger.Error("mirror adjust buy failed",
				"wallet", wallet, "mint", mint, "amount_usd", amount, "error", err)
			return nil
		}

		e.logger.Info("mirror adjust buy placed",
			"wallet", wallet, "mint", mint, "amount_usd", amount, "pct_change", mod.PctChange)
		return e.intent(domain.ActionBuy, wallet, mint, mod.Symbol, mod.Name, amount, 0, e.quote(ctx, mint))
	}

	fraction := -mod.PctChange / 100
	if fraction > 1.0 {
		fraction = 1.0
	}

	if err := e.placer.SellPartial(ctx, mint, fraction); err != nil {
		e.logger.Error("mirror adjust sell failed",
			"wallet", wallet, "mint", mint, "fraction", fraction, "error", err)
		return nil
	}

	e.logger.Info("mirror adjust sell placed",
		"wallet", wallet, "mint", mint, "fraction", fraction, "pct_change", mod.PctChange)
	return e.intent(domain.ActionSell, wallet, mint, mod.Symbol, mod.Name, current*fraction, fraction, 0)
}

// walletPositionUSD values the wallet's position, falling back to the
// configured default size when no price is available for the mint.
func (e *MirrorExecutor) walletPositionUSD(ctx context.Context, mint string, uiAmount float64) (usd, price float64) {
	price = e.quote(ctx, mint)
	if price <= 0 {
		return e.settings.FallbackPositionUSD, 0
	}
	return uiAmount * price, price
}

func (e *MirrorExecutor) quote(ctx context.Context, mint string) float64 {
	if e.prices == nil {
		return 0
	}
	price, err := e.prices.PriceOf(ctx, mint)
	if err != nil {
		if !errors.Is(err, ErrPriceUnavailable) {
			e.logger.Warn("price lookup failed", "mint", mint, "error", err)
		}
		return 0
	}
	return price
}

func (e *MirrorExecutor) intent(action domain.Action, wallet, mint, symbol, name string, amountUSD, sellFraction, entryPrice float64) *domain.TradeIntent {
	return &domain.TradeIntent{
		AgentName:     e.agentName,
		Mode:          domain.ModeMirror,
		Action:        action,
		TokenName:     name,
		TokenSymbol:   symbol,
		MintAddress:   mint,
		WalletAddress: wallet,
		AmountUSD:     amountUSD,
		SellFraction:  sellFraction,
		EntryPrice:    entryPrice,
		CreatedAt:     e.now(),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
