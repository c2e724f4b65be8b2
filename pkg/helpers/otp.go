package helpers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// One-time codes and reset tokens for the email verification and
// password reset flows.

// ResetTokenBytes is the entropy of a reset token; the hex encoding is
// twice as long (40 characters).
const ResetTokenBytes = 20

// GenOTPCode generates a secure random 6-digit OTP code as a zero-padded string
func GenOTPCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	// 6 digits: map random bytes to 000000-999999
	n := int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
	if n < 0 {
		n = -n
	}
	code := n % 1000000
	return fmt.Sprintf("%06d", code), nil
}

// GenResetToken generates a random hex token for password reset links.
// Re-requesting a reset overwrites the stored token, invalidating the old one.
func GenResetToken() (string, error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
