package executor

import (
	"solana-copybot/internal/domain"
)

// Backends holds the available order-execution back-ends. Either may be nil
// when not configured.
type Backends struct {
	Spot     OrderPlacer
	Leverage OrderPlacer
}

// PlacerFor selects the order back-end for the configured trading mode.
// Sizing and decision logic upstream is identical regardless of back-end.
func PlacerFor(mode domain.TradingMode, b Backends) (OrderPlacer, error) {
	switch mode {
	case domain.TradingModeSpot:
		if b.Spot == nil {
			return nil, ErrNoBackend
		}
		return b.Spot, nil
	case domain.TradingModeLeverage:
		if b.Leverage == nil {
			return nil, ErrNoBackend
		}
		return b.Leverage, nil
	default:
		return nil, ErrUnknownTradingMode
	}
}
