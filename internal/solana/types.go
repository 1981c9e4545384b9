package solana

// TokenProgramID is the SPL Token program address.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// TokenAccount is one SPL token account under a wallet, as reported by
// getTokenAccountsByOwner with jsonParsed encoding.
type TokenAccount struct {
	Mint      string
	RawAmount int64 // balance in smallest unit
	UIAmount  float64
	Decimals  int
}

// TokenMetadata is the off-chain name/symbol pair for a mint.
type TokenMetadata struct {
	Mint   string
	Symbol string
	Name   string
}
