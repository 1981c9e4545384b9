package executor

import (
	"context"
	"log/slog"
	"sync"
)

// PaperPlacer is an order back-end that fills every order against an
// in-memory USD ledger instead of a venue. It doubles as the
// PortfolioReader for the positions it holds, which keeps sizing
// arithmetic honest across cycles.
type PaperPlacer struct {
	mu        sync.Mutex
	positions map[string]float64 // mint -> USD exposure

	maxOrderUSD float64
	leverage    float64
	logger      *slog.Logger
}

// NewPaperPlacer creates a paper back-end. maxOrderUSD > 0 chunks larger
// orders into consecutive fills. leverage < 1 is treated as 1 (spot).
func NewPaperPlacer(maxOrderUSD, leverage float64, logger *slog.Logger) *PaperPlacer {
	if logger == nil {
		logger = slog.Default()
	}
	if leverage < 1 {
		leverage = 1
	}
	return &PaperPlacer{
		positions:   make(map[string]float64),
		maxOrderUSD: maxOrderUSD,
		leverage:    leverage,
		logger:      logger,
	}
}

var (
	_ OrderPlacer     = (*PaperPlacer)(nil)
	_ PortfolioReader = (*PaperPlacer)(nil)
)

// Buy fills a market buy of amountUSD, chunked at the max order size.
func (p *PaperPlacer) Buy(ctx context.Context, mint string, amountUSD float64) error {
	if amountUSD <= 0 {
		return nil
	}
	exposure := amountUSD * p.leverage

	remaining := exposure
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk := remaining
		if p.maxOrderUSD > 0 && chunk > p.maxOrderUSD {
			chunk = p.maxOrderUSD
		}
		p.mu.Lock()
		p.positions[mint] += chunk
		total := p.positions[mint]
		p.mu.Unlock()

		p.logger.Info("paper buy filled",
			"mint", mint, "chunk_usd", chunk, "position_usd", total)
		remaining -= chunk
	}
	return nil
}

// SellAll closes the entire position, if any.
func (p *PaperPlacer) SellAll(_ context.Context, mint string) error {
	p.mu.Lock()
	closed := p.positions[mint]
	delete(p.positions, mint)
	p.mu.Unlock()

	if closed > 0 {
		p.logger.Info("paper position closed", "mint", mint, "closed_usd", closed)
	}
	return nil
}

// SellPartial reduces the position by a fraction in (0, 1].
func (p *PaperPlacer) SellPartial(_ context.Context, mint string, fraction float64) error {
	if fraction <= 0 {
		return nil
	}
	if fraction > 1 {
		fraction = 1
	}

	p.mu.Lock()
	sold := p.positions[mint] * fraction
	p.positions[mint] -= sold
	if p.positions[mint] <= 0 {
		delete(p.positions, mint)
	}
	remaining := p.positions[mint]
	p.mu.Unlock()

	if sold > 0 {
		p.logger.Info("paper partial sell filled",
			"mint", mint, "sold_usd", sold, "position_usd", remaining)
	}
	return nil
}

// TokenBalanceUSD reports the ledger exposure for a mint.
func (p *PaperPlacer) TokenBalanceUSD(_ context.Context, mint string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positions[mint], nil
}
