package analyzer

import (
	"fmt"
	"strings"

	"solana-copybot/internal/domain"
)

// analysisPromptTemplate structures the request sent to the AI collaborator.
// The response contract (first line BUY/SELL/NOTHING, confidence percentage)
// is what ParseResponse expects back.
const analysisPromptTemplate = `You are a copy-trading portfolio analyst.

Your task is to analyze the current position and market data and decide
whether the allocation deserves to change.

Data provided:
1. Current position and its size
2. Recent market data for the token
3. What the tracked wallet just did with this token

Analysis criteria:
1. Position performance metrics
2. Price action and momentum
3. Volume analysis
4. Risk/reward ratio
5. Market conditions

Position:
%s

Market data:
%s

Tracked wallet signal:
%s

Respond in this exact format:
1. First line must be one of: BUY, SELL, or NOTHING (in caps)
2. Then explain your reasoning, including:
   - Position analysis
   - Technical analysis
   - Risk assessment
   - Confidence level (as a percentage, e.g. 75%%)

Remember:
- Look for high-conviction setups
- Consider both the position and overall market conditions`

// BuildPrompt composes the analysis prompt for one position. The wallet
// action hint is guidance text only; its weight is rendered into the prompt
// and never applied numerically to the returned confidence.
func BuildPrompt(h *domain.TokenHolding, marketData string, wctx domain.WalletContext, weight float64) string {
	if marketData == "" {
		marketData = "No market data available"
	}
	return fmt.Sprintf(analysisPromptTemplate, formatPosition(h), marketData, walletHint(wctx, weight))
}

func formatPosition(h *domain.TokenHolding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Token: %s (%s)\n", h.Name, h.Symbol)
	fmt.Fprintf(&b, "Mint: %s\n", h.Mint)
	fmt.Fprintf(&b, "Amount: %f\n", h.Amount)
	fmt.Fprintf(&b, "USD Value: $%.2f", h.USDValue())
	return b.String()
}

// walletHint converts the wallet-action classification into a directional
// hint. New positions and full exits get a strong hint, small balance
// moves (|pct| <= 20) a weak one.
func walletHint(wctx domain.WalletContext, weight float64) string {
	switch wctx.Action {
	case domain.WalletActionNew:
		return fmt.Sprintf("The tracked wallet just OPENED this position (strong buy signal). Weight this signal at %.2f of 1.0 in your assessment.", weight)
	case domain.WalletActionRemoved:
		return fmt.Sprintf("The tracked wallet just CLOSED this position entirely (strong sell signal). Weight this signal at %.2f of 1.0 in your assessment.", weight)
	case domain.WalletActionModified:
		direction := "INCREASED"
		signal := "buy"
		if wctx.PctChange < 0 {
			direction = "DECREASED"
			signal = "sell"
		}
		strength := "weak"
		if wctx.PctChange > 20 || wctx.PctChange < -20 {
			strength = "strong"
		}
		return fmt.Sprintf("The tracked wallet %s this position by %.2f%% (%s %s signal). Weight this signal at %.2f of 1.0 in your assessment.",
			direction, wctx.PctChange, strength, signal, weight)
	default:
		return "No recent activity from the tracked wallet for this token."
	}
}
