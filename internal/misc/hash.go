package misc

import (
	"crypto/sha256"
	"encoding/hex"
)

// SumSHA256 returns the hex digest of value concatenated with the key,
// matching the HashSHA256 header scheme of the management API.
func SumSHA256(value []byte, key string) string {
	sum := sha256.Sum256(append(value, []byte(key)...))
	return hex.EncodeToString(sum[:])
}
