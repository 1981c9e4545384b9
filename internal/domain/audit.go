package domain

// ChangeKind labels one row of the change audit log.
type ChangeKind string

const (
	ChangeKindNew      ChangeKind = "NEW"
	ChangeKindRemoved  ChangeKind = "REMOVED"
	ChangeKindModified ChangeKind = "MODIFIED"
)

// ChangeLogEntry is the flattened audit-log row for one detected token
// change. ChangeRecords are flattened into one entry per mint when logged;
// the in-memory ChangeRecord itself is never persisted.
type ChangeLogEntry struct {
	WalletAddress string
	Mint          string
	Kind          ChangeKind
	PreviousRaw   int64 // 0 for new tokens
	CurrentRaw    int64 // 0 for removed tokens
	PctChange     float64
	Symbol        string
	Name          string
	DetectedAt    int64 // Unix timestamp in milliseconds
}

// FlattenChanges converts a per-wallet ChangeRecord into audit-log rows.
func FlattenChanges(wallet string, rec *ChangeRecord, detectedAt int64) []*ChangeLogEntry {
	entries := make([]*ChangeLogEntry, 0,
		len(rec.NewTokens)+len(rec.RemovedTokens)+len(rec.ModifiedTokens))

	for mint, tc := range rec.NewTokens {
		entries = append(entries, &ChangeLogEntry{
			WalletAddress: wallet,
			Mint:          mint,
			Kind:          ChangeKindNew,
			CurrentRaw:    tc.RawAmount,
			Symbol:        tc.Symbol,
			Name:          tc.Name,
			DetectedAt:    detectedAt,
		})
	}
	for mint, tc := range rec.RemovedTokens {
		entries = append(entries, &ChangeLogEntry{
			WalletAddress: wallet,
			Mint:          mint,
			Kind:          ChangeKindRemoved,
			PreviousRaw:   tc.RawAmount,
			Symbol:        tc.Symbol,
			Name:          tc.Name,
			DetectedAt:    detectedAt,
		})
	}
	for mint, mod := range rec.ModifiedTokens {
		entries = append(entries, &ChangeLogEntry{
			WalletAddress: wallet,
			Mint:          mint,
			Kind:          ChangeKindModified,
			PreviousRaw:   mod.PreviousRaw,
			CurrentRaw:    mod.CurrentRaw,
			PctChange:     mod.PctChange,
			Symbol:        mod.Symbol,
			Name:          mod.Name,
			DetectedAt:    detectedAt,
		})
	}

	return entries
}
