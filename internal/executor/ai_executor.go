// Package executor turns recommendations and wallet diffs into orders.
// Two interchangeable strategies exist: confidence-weighted AI sizing and
// direct wallet mirroring. Mode is re-evaluated fresh each cycle.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"solana-copybot/internal/decision"
	"solana-copybot/internal/domain"
)

// AIExecutor sizes and places orders from AI recommendations. Confidence
// thresholding and sizing arithmetic live in the decision package; this
// type only drives the order back-end and records intents.
type AIExecutor struct {
	placer    OrderPlacer
	portfolio PortfolioReader
	prices    PriceSource
	settings  domain.Settings
	logger    *slog.Logger
	agentName string

	now func() int64
}

// NewAIExecutor creates an AIExecutor bound to an order back-end.
func NewAIExecutor(placer OrderPlacer, portfolio PortfolioReader, prices PriceSource, settings domain.Settings, agentName string, logger *slog.Logger) *AIExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &AIExecutor{
		placer:    placer,
		portfolio: portfolio,
		prices:    prices,
		settings:  settings,
		logger:    logger,
		agentName: agentName,
		now:       func() int64 { return time.Now().UnixMilli() },
	}
}

// Execute places orders for the actionable recommendations of one cycle.
// A failed order is logged and its token skipped; the remaining
// recommendations are still attempted, and nothing already placed is rolled
// back. A non-nil error means the context was cancelled mid-batch; intents
// placed up to that point accompany it.
func (e *AIExecutor) Execute(ctx context.Context, wallet string, recs []*domain.Recommendation, changes *domain.ChangeRecord) ([]*domain.TradeIntent, error) {
	actionable := decision.SelectActionable(recs, e.settings.MinConfidence)
	if len(actionable) == 0 {
		return nil, nil
	}

	var intents []*domain.TradeIntent
	for _, rec := range actionable {
		if err := ctx.Err(); err != nil {
			return intents, err
		}

		intent, err := e.executeOne(ctx, wallet, rec, changes)
		if err != nil {
			if ctx.Err() != nil {
				return intents, ctx.Err()
			}
			e.logger.Error("order failed, skipping token",
				"mint", rec.Token, "action", rec.Action, "error", err)
			continue
		}
		if intent != nil {
			intents = append(intents, intent)
		}
	}

	return intents, nil
}

func (e *AIExecutor) executeOne(ctx context.Context, wallet string, rec *domain.Recommendation, changes *domain.ChangeRecord) (*domain.TradeIntent, error) {
	current, err := e.portfolio.TokenBalanceUSD(ctx, rec.Token)
	if err != nil {
		return nil, fmt.Errorf("read position: %w", err)
	}

	symbol, name := tokenMeta(changes, rec.Token)

	switch rec.Action {
	case domain.ActionBuy:
		amount := decision.BuyAmountUSD(e.settings, rec.Confidence, current)
		if amount <= 0 {
			// Already at or above the confidence-weighted target.
			e.logger.Info("position at target, no buy",
				"mint", rec.Token, "current_usd", current)
			return nil, nil
		}

		if err := e.placer.Buy(ctx, rec.Token, amount); err != nil {
			return nil, err
		}

		e.logger.Info("AI buy placed",
			"mint", rec.Token, "amount_usd", amount, "confidence", rec.Confidence)
		return &domain.TradeIntent{
			AgentName:     e.agentName,
			Mode:          domain.ModeAI,
			Action:        domain.ActionBuy,
			TokenName:     name,
			TokenSymbol:   symbol,
			MintAddress:   rec.Token,
			WalletAddress: wallet,
			AmountUSD:     amount,
			EntryPrice:    e.quote(ctx, rec.Token),
			AIAnalysis:    rec.Reasoning,
			CreatedAt:     e.now(),
		}, nil

	case domain.ActionSell:
		amount := decision.SellAmountUSD(current)
		if amount <= 0 {
			e.logger.Info("no position to sell", "mint", rec.Token)
			return nil, nil
		}

		if err := e.placer.SellAll(ctx, rec.Token); err != nil {
			return nil, err
		}

		e.logger.Info("AI sell placed",
			"mint", rec.Token, "amount_usd", amount, "confidence", rec.Confidence)
		exit := e.quote(ctx, rec.Token)
		intent := &domain.TradeIntent{
			AgentName:     e.agentName,
			Mode:          domain.ModeAI,
			Action:        domain.ActionSell,
			TokenName:     name,
			TokenSymbol:   symbol,
			MintAddress:   rec.Token,
			WalletAddress: wallet,
			AmountUSD:     amount,
			SellFraction:  1.0,
			AIAnalysis:    rec.Reasoning,
			CreatedAt:     e.now(),
		}
		if exit > 0 {
			intent.ExitPrice = &exit
		}
		return intent, nil
	}

	// SelectActionable filters out NOTHING; anything else is a bug upstream.
	return nil, fmt.Errorf("unexpected action %q", rec.Action)
}

// quote returns the current price or 0 when no quote is available. Intents
// are best-effort audit records; a missing price never blocks an order.
func (e *AIExecutor) quote(ctx context.Context, mint string) float64 {
	if e.prices == nil {
		return 0
	}
	price, err := e.prices.PriceOf(ctx, mint)
	if err != nil {
		return 0
	}
	return price
}

// tokenMeta resolves symbol and name for a mint from the cycle's change
// record, falling back to placeholders for mints the diff never saw.
func tokenMeta(changes *domain.ChangeRecord, mint string) (symbol, name string) {
	if changes == nil {
		return "UNK", "Unknown Token"
	}
	if tc, ok := changes.NewTokens[mint]; ok {
		return tc.Symbol, tc.Name
	}
	if tc, ok := changes.RemovedTokens[mint]; ok {
		return tc.Symbol, tc.Name
	}
	if mod, ok := changes.ModifiedTokens[mint]; ok {
		return mod.Symbol, mod.Name
	}
	return "UNK", "Unknown Token"
}
