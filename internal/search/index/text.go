package index

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the sha256 (hex) of a serialized index. Two loads of the same
// bytes share a digest, which lets a reloader skip no-op swaps.
func Digest(raw []byte) string {
	h := sha256.Sum256(raw)
	return hex.EncodeToString(h[:])
}
