package crypto

import (
	"crypto/rand"
	"encoding/hex"
)

// VerificationTokenBytes is the amount of randomness in a verification token.
const VerificationTokenBytes = 32

// NewVerificationToken returns a random hex string suitable for single-use
// email verification links.
func NewVerificationToken() (string, error) {
	b := make([]byte, VerificationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
