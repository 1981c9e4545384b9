package solana

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ValidateWalletAddress checks that an address is a plausible Solana wallet:
// 32 bytes of base58 whose public key lies on the ed25519 curve. Program
// derived addresses are off-curve and rejected, which is what we want for
// wallets configured by hand.
func ValidateWalletAddress(address string) error {
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("address is %d bytes, want 32", len(raw))
	}
	if !isOnCurve(raw) {
		return fmt.Errorf("address is not on the ed25519 curve")
	}
	return nil
}

// ValidateMintAddress checks that an address is 32 bytes of base58. Mints
// may be PDAs, so no curve check.
func ValidateMintAddress(address string) error {
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("address is %d bytes, want 32", len(raw))
	}
	return nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
