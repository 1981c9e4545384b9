package domain

import (
	"fmt"
	"time"
)

// TradingMode selects the order-execution back-end.
type TradingMode string

const (
	TradingModeSpot     TradingMode = "spot"
	TradingModeLeverage TradingMode = "leverage"
)

// Well-known mints excluded from trading by default.
const (
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	WSOLMint = "So11111111111111111111111111111111111111112"
)

// Settings is the explicit configuration surface of the copy-trading engine.
// Components receive it by value at construction; nothing reads ambient
// global state.
type Settings struct {
	// Tracking
	WalletsToTrack  []string
	MonitoredTokens []string // allowlist used when DynamicMode is false
	DynamicMode     bool     // scan all token accounts instead of the allowlist
	ExcludedTokens  []string // never analyzed or traded (stables, SOL)

	// Snapshot relevance filtering
	MinTokenValueUSD   float64 // drop positions below this USD value
	PortfolioPctFilter float64 // dynamic mode: drop positions below this % of the wallet

	// Analysis
	MinConfidence      int     // recommendations below this are discarded
	WalletActionWeight float64 // hint strength in [0,1], rendered into the prompt

	// Sizing
	PortfolioSizeUSD float64 // total portfolio value used for sizing
	MaxPositionPct   float64 // max % of portfolio per position (0-100)
	MaxOrderSizeUSD  float64 // cap for a single order

	// Mirror mode
	MirrorPositionScale float64 // scale applied to the wallet's USD position on new tokens
	MinPositionUSD      float64 // dust threshold; smaller trades are skipped
	MaxTokenAllocation  float64 // cumulative allocation cap as a fraction of portfolio
	FallbackPositionUSD float64 // used when no price is available for a new token
	AutoBuyNew          bool
	AutoSellRemoved     bool

	// Execution
	TradingMode     TradingMode
	DefaultLeverage float64

	// Pacing
	APICallDelay  time.Duration // inter-call delay between per-token AI requests
	CycleInterval time.Duration // delay between analysis cycles
	SkipFirstRun  bool          // first cycle only primes the snapshot store
}

// DefaultSettings returns the engine defaults.
func DefaultSettings() Settings {
	return Settings{
		ExcludedTokens:      []string{USDCMint, WSOLMint},
		MinTokenValueUSD:    10,
		MinConfidence:       80,
		WalletActionWeight:  0.6,
		PortfolioSizeUSD:    30,
		MaxPositionPct:      14,
		MaxOrderSizeUSD:     6,
		MirrorPositionScale: 1.0,
		MinPositionUSD:      0.5,
		MaxTokenAllocation:  0.2,
		FallbackPositionUSD: 10,
		AutoBuyNew:          true,
		AutoSellRemoved:     true,
		TradingMode:         TradingModeSpot,
		DefaultLeverage:     2.0,
		APICallDelay:        2 * time.Second,
		CycleInterval:       5 * time.Minute,
	}
}

// Validate normalizes and checks the settings.
// An unknown trading mode falls back to spot rather than failing, matching
// the engine's prefer-degraded-over-dead posture.
func (s *Settings) Validate() error {
	if s.TradingMode != TradingModeSpot && s.TradingMode != TradingModeLeverage {
		s.TradingMode = TradingModeSpot
	}
	if s.MinConfidence < 0 || s.MinConfidence > 100 {
		return fmt.Errorf("min confidence %d outside [0,100]", s.MinConfidence)
	}
	if s.WalletActionWeight < 0 || s.WalletActionWeight > 1 {
		return fmt.Errorf("wallet action weight %.2f outside [0,1]", s.WalletActionWeight)
	}
	if s.MaxPositionPct < 0 || s.MaxPositionPct > 100 {
		return fmt.Errorf("max position percentage %.2f outside [0,100]", s.MaxPositionPct)
	}
	if s.MaxTokenAllocation < 0 || s.MaxTokenAllocation > 1 {
		return fmt.Errorf("max token allocation %.2f outside [0,1]", s.MaxTokenAllocation)
	}
	return nil
}

// IsExcluded reports whether a mint is in the excluded set.
func (s *Settings) IsExcluded(mint string) bool {
	for _, t := range s.ExcludedTokens {
		if t == mint {
			return true
		}
	}
	return false
}

// IsMonitored reports whether a mint passes the allowlist. Always true in
// dynamic mode.
func (s *Settings) IsMonitored(mint string) bool {
	if s.DynamicMode {
		return true
	}
	for _, t := range s.MonitoredTokens {
		if t == mint {
			return true
		}
	}
	return false
}
