package domain

import "math"

// TokenHolding represents one token position in one wallet at one point in time.
// Holdings are created fresh each polling cycle and never mutated; the next
// cycle's snapshot supersedes them.
type TokenHolding struct {
	Mint          string  // token mint address
	Amount        float64 // decimal-adjusted quantity
	RawAmount     int64   // quantity in smallest unit
	Decimals      int     // token decimals (>= 0)
	Symbol        string  // "UNK" when metadata is unavailable
	Name          string  // "Unknown Token" when metadata is unavailable
	PriceUSD      float64 // last known price, 0 when unknown
	WalletAddress string  // owning wallet
	CapturedAt    int64   // Unix timestamp in milliseconds
}

// RawFromAmount converts a decimal-adjusted amount to the smallest unit.
// Invariant: RawAmount == round(Amount * 10^Decimals).
func RawFromAmount(amount float64, decimals int) int64 {
	return int64(math.Round(amount * math.Pow10(decimals)))
}

// USDValue returns the position value at the last known price.
// Returns 0 when no price is known.
func (h *TokenHolding) USDValue() float64 {
	return h.Amount * h.PriceUSD
}

// WalletSnapshot maps a wallet address to its non-zero token holdings.
// Snapshots are immutable once captured; two consecutive snapshots are
// diffed, never merged.
type WalletSnapshot map[string][]*TokenHolding

// Wallets returns the wallet addresses present in the snapshot.
func (s WalletSnapshot) Wallets() []string {
	wallets := make([]string, 0, len(s))
	for w := range s {
		wallets = append(wallets, w)
	}
	return wallets
}

// HoldingFor returns the holding for a mint in a wallet, or nil if absent.
func (s WalletSnapshot) HoldingFor(wallet, mint string) *TokenHolding {
	for _, h := range s[wallet] {
		if h.Mint == mint {
			return h
		}
	}
	return nil
}
