package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeIntentID computes a deterministic intent_id using SHA256.
// Formula: SHA256(mode|action|mint|wallet|created_at)
// Returns hex-encoded hash (64 characters).
func ComputeIntentID(
	mode string,
	action string,
	mint string,
	wallet string,
	createdAt int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		mode,
		action,
		mint,
		wallet,
		createdAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
