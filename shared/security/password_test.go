package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	for _, plain := range []string{"secret", "", "pässwörd with spaces", "0123456789abcdef0123456789abcdef"} {
		hash, err := HashPassword(plain)
		require.NoError(t, err)
		assert.NotEqual(t, plain, hash)
		assert.True(t, VerifyPassword(plain, hash), "plaintext %q", plain)
		assert.False(t, VerifyPassword(plain+"x", hash))
	}
}

func TestHashPassword_SaltsEveryCall(t *testing.T) {
	first, err := HashPassword("secret")
	require.NoError(t, err)
	second, err := HashPassword("secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	tests := []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=65536,t=3,p=4$",
		"$2b$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW",
	}

	for _, hash := range tests {
		assert.NotPanics(t, func() {
			assert.False(t, VerifyPassword("secret", hash))
		})
	}
}
