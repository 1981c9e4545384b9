package solana

// AccountWatcher surfaces on-chain activity for tracked wallets between
// polling cycles. Implementations deliver wallet addresses with detected
// activity on Dirty; receivers treat them as a hint to run a cycle early,
// not as an authoritative change record.
type AccountWatcher interface {
	// Dirty returns a channel of wallet addresses with detected activity.
	Dirty() <-chan string

	// Close shuts the watcher down and releases the connection.
	Close() error
}
