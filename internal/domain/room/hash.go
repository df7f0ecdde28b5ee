package room

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// HashPassword returns the hex Keccak-256 digest of a plaintext password.
// Rooms store only this digest; joining compares digests byte for byte, with
// no normalization of the plaintext.
func HashPassword(password string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(password))
	return hex.EncodeToString(h.Sum(nil))
}
