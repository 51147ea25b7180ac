package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey returns a filesystem-safe identifier for an owner ID.
func HashUserKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashList returns a stable identifier for an ordered list of strings.
// Element boundaries are preserved, so ["ab"] and ["a","b"] differ.
func HashList(items []string) string {
	h := sha256.New()
	var lenBuf [8]byte
	for _, item := range items {
		n := uint64(len(item))
		for i := 0; i < 8; i++ {
			lenBuf[i] = byte(n >> (8 * i))
		}
		h.Write(lenBuf[:])
		h.Write([]byte(item))
	}
	return hex.EncodeToString(h.Sum(nil))
}
