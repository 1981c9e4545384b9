package solana

import "context"

// RPCClient defines the Solana RPC surface the engine needs.
type RPCClient interface {
	// GetTokenAccountsByOwner retrieves all SPL token accounts for a wallet.
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenAccount, error)

	// GetTokenAccountByMint retrieves the wallet's token account for one
	// specific mint. Returns nil when the wallet holds no account for it.
	GetTokenAccountByMint(ctx context.Context, owner, mint string) (*TokenAccount, error)
}
