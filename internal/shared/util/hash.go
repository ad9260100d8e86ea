package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPrincipal returns a stable opaque identifier for a rate-limit
// principal, keeping raw client addresses out of bucket keys and logs.
func HashPrincipal(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
