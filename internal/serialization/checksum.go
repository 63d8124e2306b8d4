package serialization

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidateChecksum returns ErrChecksumMismatch unless data hashes to want.
func ValidateChecksum(data []byte, want string) error {
	if Checksum(data) != want {
		return ErrChecksumMismatch
	}
	return nil
}
