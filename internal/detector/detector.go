// Package detector computes classified diffs between two wallet snapshots.
package detector

import (
	"math"

	"solana-copybot/internal/domain"
)

// DetectChanges compares the previous and current snapshots and returns a
// ChangeRecord per wallet that changed. Wallets absent from current are
// treated as holding no tokens. The result is sparse: a wallet contributes
// an entry only when at least one token is new, removed, or modified.
//
// Pure function; neither snapshot is mutated.
func DetectChanges(previous, current domain.WalletSnapshot) map[string]*domain.ChangeRecord {
	changes := make(map[string]*domain.ChangeRecord)

	for _, wallet := range walletUnion(previous, current) {
		prevByMint := byMint(previous[wallet])
		currByMint := byMint(current[wallet])

		record := domain.NewChangeRecord()

		for mint, curr := range currByMint {
			prev, held := prevByMint[mint]
			if !held || prev.RawAmount == 0 {
				// A zero previous balance counts as new, never as a
				// modification (avoids dividing by zero below).
				record.NewTokens[mint] = tokenChange(curr)
				continue
			}
			if curr.RawAmount == prev.RawAmount {
				continue
			}
			change := curr.RawAmount - prev.RawAmount
			pct := 0.0
			if prev.RawAmount != 0 {
				pct = round2(float64(change) / float64(prev.RawAmount) * 100)
			}
			record.ModifiedTokens[mint] = domain.ModifiedToken{
				PreviousRaw: prev.RawAmount,
				CurrentRaw:  curr.RawAmount,
				Change:      change,
				PctChange:   pct,
				Decimals:    curr.Decimals,
				Symbol:      curr.Symbol,
				Name:        curr.Name,
			}
		}

		for mint, prev := range prevByMint {
			if _, held := currByMint[mint]; !held {
				record.RemovedTokens[mint] = tokenChange(prev)
			}
		}

		if !record.Empty() {
			changes[wallet] = record
		}
	}

	return changes
}

func walletUnion(previous, current domain.WalletSnapshot) []string {
	seen := make(map[string]struct{}, len(previous)+len(current))
	wallets := make([]string, 0, len(previous)+len(current))
	for w := range previous {
		if _, ok := seen[w]; !ok {
			seen[w] = struct{}{}
			wallets = append(wallets, w)
		}
	}
	for w := range current {
		if _, ok := seen[w]; !ok {
			seen[w] = struct{}{}
			wallets = append(wallets, w)
		}
	}
	return wallets
}

func byMint(holdings []*domain.TokenHolding) map[string]*domain.TokenHolding {
	m := make(map[string]*domain.TokenHolding, len(holdings))
	for _, h := range holdings {
		m[h.Mint] = h
	}
	return m
}

func tokenChange(h *domain.TokenHolding) domain.TokenChange {
	return domain.TokenChange{
		RawAmount: h.RawAmount,
		UIAmount:  h.Amount,
		Decimals:  h.Decimals,
		Symbol:    h.Symbol,
		Name:      h.Name,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
