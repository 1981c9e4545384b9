package decision

import "solana-copybot/internal/domain"

// MaxPositionUSD returns the largest position the settings allow:
// totalPortfolioValue * maxPositionPercentage.
func MaxPositionUSD(s domain.Settings) float64 {
	return s.PortfolioSizeUSD * (s.MaxPositionPct / 100)
}

// TargetPositionUSD scales the maximum position by confidence. A confidence
// of 100 targets the full cap, 50 targets half of it.
func TargetPositionUSD(s domain.Settings, confidence int) float64 {
	return MaxPositionUSD(s) * (float64(domain.ClampConfidence(confidence)) / 100)
}

// BuyAmountUSD returns how much to buy to reach the confidence-weighted
// target, floored at 0. A position already at or above target yields 0: the
// caller performs no buy, which is a no-op rather than an error. A BUY never
// sells.
func BuyAmountUSD(s domain.Settings, confidence int, currentPositionUSD float64) float64 {
	amount := TargetPositionUSD(s, confidence) - currentPositionUSD
	if amount <= 0 {
		return 0
	}
	return amount
}

// SellAmountUSD returns the USD value to liquidate for a SELL: the entire
// current position. Chunking into orders no larger than MaxOrderSizeUSD is
// the execution collaborator's job.
func SellAmountUSD(currentPositionUSD float64) float64 {
	if currentPositionUSD <= 0 {
		return 0
	}
	return currentPositionUSD
}
