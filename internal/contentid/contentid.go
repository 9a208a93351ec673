// Package contentid derives content-addressed identifiers for chunk text.
package contentid

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the length of an identifier in hex characters.
const Size = sha256.Size * 2

// ID returns the lowercase hex SHA-256 digest of the exact UTF-8 bytes of text.
// Identical text always yields the same ID; the empty string is valid input.
func ID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// IDs returns the identifier of each text, in order.
func IDs(texts []string) []string {
	ids := make([]string, len(texts))
	for i, t := range texts {
		ids[i] = ID(t)
	}
	return ids
}

// Valid reports whether s has the shape of an identifier produced by ID.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
