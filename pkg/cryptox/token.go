package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// GenerateToken creates a cryptographically secure random token of the
// specified byte length, returned as a base64url string without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token,
// base64url-encoded. Used for keying stored tokens without keeping the
// original value around.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

var digitAlphabet = big.NewInt(10)

// GenerateDigits produces a numeric code of the given length. Each digit is
// drawn independently and uniformly from crypto/rand, so codes carry no
// modulo bias regardless of length.
func GenerateDigits(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("digit code length must be positive, got %d", length)
	}

	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, digitAlphabet)
		if err != nil {
			return "", fmt.Errorf("failed to generate digit code: %w", err)
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}
