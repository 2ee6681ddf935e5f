package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateDigits(t *testing.T) {
	for _, length := range []int{4, 6, 8, 10} {
		code, err := GenerateDigits(length)
		require.NoError(t, err)
		require.Len(t, code, length)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "expected digits only, got %q", code)
		}
	}

	t.Run("rejects non-positive length", func(t *testing.T) {
		_, err := GenerateDigits(0)
		require.Error(t, err)
	})

	t.Run("preserves leading zeros", func(t *testing.T) {
		// With 200 four-digit draws a leading zero is near-certain; the
		// invariant is that length never shrinks when one occurs.
		for range 200 {
			code, err := GenerateDigits(4)
			require.NoError(t, err)
			require.Len(t, code, 4)
		}
	})
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(32)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	other, err := GenerateToken(32)
	require.NoError(t, err)
	require.NotEqual(t, token, other)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))

	require.NoError(t, VerifyPassword("correct horse battery staple", hash))
	require.ErrorIs(t, VerifyPassword("wrong password", hash), ErrPasswordMismatch)

	t.Run("same password yields distinct hashes", func(t *testing.T) {
		again, err := HashPassword("correct horse battery staple")
		require.NoError(t, err)
		require.NotEqual(t, hash, again)
	})

	t.Run("garbage hash rejected", func(t *testing.T) {
		require.Error(t, VerifyPassword("anything", "not-a-phc-string"))
	})
}
