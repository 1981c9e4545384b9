// Package analyzer turns wallet-change context plus AI sentiment into
// per-token trading recommendations.
package analyzer

import (
	"context"
	"errors"
	"log/slog"

	"solana-copybot/internal/domain"
)

// TextGenerator is the AI-text collaborator. Implementations may fail or
// time out; the analyzer recovers from both.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PositionAnalyzer builds decision requests for changed positions and parses
// the AI responses. It is stateless across cycles; the caller owns the
// per-cycle recommendation table.
type PositionAnalyzer struct {
	gen      TextGenerator
	settings domain.Settings
	logger   *slog.Logger
}

// New creates a PositionAnalyzer. gen may be nil, in which case Available
// reports false and the engine runs in mirror-only mode.
func New(gen TextGenerator, settings domain.Settings, logger *slog.Logger) *PositionAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PositionAnalyzer{gen: gen, settings: settings, logger: logger}
}

// Available reports whether an AI collaborator is configured at all.
// A false value is the systemic-failure case that switches the engine to
// mirror mode for the whole run.
func (a *PositionAnalyzer) Available() bool {
	return a.gen != nil
}

// Analyze produces a recommendation for one token given its wallet-action
// context. It returns (nil, nil) when the token is excluded, when no holding
// data exists (unless the wallet removed the token, in which case a
// zero-amount holding is synthesized), or when the response is unparseable.
// An AI transport failure yields a defaulted NOTHING/50 recommendation
// rather than an error: a single flaky call must not abort the cycle.
func (a *PositionAnalyzer) Analyze(ctx context.Context, mint string, holding *domain.TokenHolding, wctx domain.WalletContext, marketData string) (*domain.Recommendation, error) {
	if !a.Available() {
		return nil, ErrNoGenerator
	}

	if a.settings.IsExcluded(mint) {
		a.logger.Info("skipping excluded token", "mint", mint)
		return nil, nil
	}

	if holding == nil {
		if wctx.Action != domain.WalletActionRemoved {
			a.logger.Warn("no holding data for token", "mint", mint)
			return nil, nil
		}
		// The wallet sold out entirely; reason about the exit anyway.
		holding = &domain.TokenHolding{
			Mint:   mint,
			Symbol: "UNK",
			Name:   "Unknown Token",
		}
	}

	prompt := BuildPrompt(holding, marketData, wctx, a.settings.WalletActionWeight)

	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("AI request failed, defaulting to NOTHING", "mint", mint, "error", err)
		return &domain.Recommendation{
			Token:      mint,
			Action:     domain.ActionNothing,
			Confidence: DefaultConfidence,
			Reasoning:  "Could not get AI analysis. No action recommended.",
		}, nil
	}

	rec, err := ParseResponse(mint, text)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			a.logger.Warn("discarding unparseable AI response",
				"mint", mint, "reason", perr.Reason, "raw", perr.Raw)
			return nil, nil
		}
		return nil, err
	}

	a.logger.Info("position analyzed",
		"mint", mint, "action", rec.Action, "confidence", rec.Confidence)
	return rec, nil
}

// ErrNoGenerator is returned when Analyze is called without an AI
// collaborator configured.
var ErrNoGenerator = errors.New("no AI text generator configured")
