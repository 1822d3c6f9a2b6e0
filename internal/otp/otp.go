package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

// DefaultDigits is the code length used for email verification and login confirmation.
const DefaultDigits = 6

// ErrInvalidDigits is returned when the requested code length is outside 6..10.
var ErrInvalidDigits = errors.New("invalid otp digits")

// Generate returns a uniformly random numeric code of the given length.
func Generate(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", ErrInvalidDigits
	}

	var b strings.Builder
	b.Grow(digits)

	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}

// Digest returns the hex SHA-256 of code. Only digests are persisted.
func Digest(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether code hashes to digest, in constant time.
func Matches(digest, code string) bool {
	if digest == "" || code == "" {
		return false
	}
	computed := Digest(code)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}

// WellFormed reports whether code is exactly digits ASCII digits.
func WellFormed(code string, digits int) bool {
	if len(code) != digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
