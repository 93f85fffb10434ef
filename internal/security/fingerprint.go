package security

import (
	"crypto/sha256"
	"crypto/subtle"
)

// Fingerprint is the value persisted for a refresh token.
func Fingerprint(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}

func MatchFingerprint(token string, fingerprint []byte) bool {
	if token == "" || len(fingerprint) != sha256.Size {
		return false
	}
	return subtle.ConstantTimeCompare(Fingerprint(token), fingerprint) == 1
}
