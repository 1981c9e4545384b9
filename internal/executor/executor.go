package executor

import (
	"context"
	"errors"
)

var (
	ErrUnknownTradingMode = errors.New("unknown trading mode")
	ErrNoBackend          = errors.New("no order backend configured for trading mode")

	// ErrPriceUnavailable is returned by a PriceSource when it cannot quote
	// a mint. Callers fall back to a configured default position size.
	ErrPriceUnavailable = errors.New("price unavailable")
)

// OrderPlacer is the order-execution back-end. Implementations are expected
// to chunk orders larger than the configured max single-order size; the
// executors pass full USD amounts.
type OrderPlacer interface {
	// Buy places a market buy of amountUSD worth of the mint.
	Buy(ctx context.Context, mint string, amountUSD float64) error

	// SellAll closes the entire position in the mint.
	SellAll(ctx context.Context, mint string) error

	// SellPartial sells a fraction (0, 1] of the current position.
	SellPartial(ctx context.Context, mint string, fraction float64) error
}

// PortfolioReader reports the bot's own current positions.
type PortfolioReader interface {
	// TokenBalanceUSD returns the USD value of the bot's position in the
	// mint. A zero value with nil error means no position.
	TokenBalanceUSD(ctx context.Context, mint string) (float64, error)
}

// PriceSource quotes current token prices in USD.
type PriceSource interface {
	// PriceOf returns the USD price for one whole token of the mint.
	// Returns ErrPriceUnavailable when no quote exists.
	PriceOf(ctx context.Context, mint string) (float64, error)
}
