package domain

// TokenChange describes a token that appeared in or disappeared from a
// tracked wallet between two snapshots.
type TokenChange struct {
	RawAmount int64   // balance in smallest unit at the relevant snapshot
	UIAmount  float64 // decimal-adjusted balance
	Decimals  int
	Symbol    string
	Name      string
}

// ModifiedToken describes a balance change for a token present in both
// snapshots. PctChange is positive when the wallet increased the position
// (buy-side signal) and negative when it reduced it. The sign is computed
// here once and never re-derived downstream.
type ModifiedToken struct {
	PreviousRaw int64
	CurrentRaw  int64
	Change      int64   // CurrentRaw - PreviousRaw
	PctChange   float64 // Change / PreviousRaw * 100, rounded to 2 decimals
	Decimals    int
	Symbol      string
	Name        string
}

// ChangeRecord holds the classified per-wallet diff of two snapshots.
// A mint appears in exactly one of the three categories per detection run.
// Records live for one cycle only; they are not carried forward.
type ChangeRecord struct {
	NewTokens      map[string]TokenChange
	RemovedTokens  map[string]TokenChange
	ModifiedTokens map[string]ModifiedToken
}

// NewChangeRecord creates an empty ChangeRecord with initialized maps.
func NewChangeRecord() *ChangeRecord {
	return &ChangeRecord{
		NewTokens:      make(map[string]TokenChange),
		RemovedTokens:  make(map[string]TokenChange),
		ModifiedTokens: make(map[string]ModifiedToken),
	}
}

// Empty reports whether no change was detected for the wallet.
func (r *ChangeRecord) Empty() bool {
	return len(r.NewTokens) == 0 && len(r.RemovedTokens) == 0 && len(r.ModifiedTokens) == 0
}

// WalletAction classifies what a tracked wallet did with a token between
// two snapshots.
type WalletAction string

const (
	WalletActionNone     WalletAction = "NONE"
	WalletActionNew      WalletAction = "NEW"
	WalletActionRemoved  WalletAction = "REMOVED"
	WalletActionModified WalletAction = "MODIFIED"
)

// WalletContext carries the wallet-action classification for one token into
// position analysis. PctChange is meaningful only for WalletActionModified.
type WalletContext struct {
	Action    WalletAction
	PctChange float64
}
