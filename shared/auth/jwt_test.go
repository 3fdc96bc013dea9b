package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestAuthenticator(t *testing.T, clock *fakeClock, opts ...Option) *JWTAuthenticator {
	t.Helper()

	opts = append(opts, WithClock(clock.Now))
	a, err := NewJWTAuthenticator("test-secret", "HS256", opts...)
	require.NoError(t, err)

	return a
}

func TestNewJWTAuthenticator(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		algorithm string
		wantErr   error
	}{
		{name: "hs256", secret: "s", algorithm: "HS256"},
		{name: "hs512", secret: "s", algorithm: "HS512"},
		{name: "missing secret", secret: "", algorithm: "HS256", wantErr: ErrMissingSigningKey},
		{name: "asymmetric alg", secret: "s", algorithm: "RS256", wantErr: ErrUnsupportedAlg},
		{name: "unknown alg", secret: "s", algorithm: "nope", wantErr: ErrUnsupportedAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJWTAuthenticator(tt.secret, tt.algorithm)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestJWTAuthenticator_ValidateUntilExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	a := newTestAuthenticator(t, clock)

	token, err := a.GenerateToken("alice", time.Hour)
	require.NoError(t, err)

	subject, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)

	clock.now = clock.now.Add(59 * time.Minute)
	_, err = a.ValidateToken(token)
	assert.NoError(t, err)

	clock.now = clock.now.Add(time.Minute + time.Second)
	_, err = a.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTAuthenticator_DefaultTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	a := newTestAuthenticator(t, clock)

	token, err := a.GenerateToken("alice", 0)
	require.NoError(t, err)

	clock.now = clock.now.Add(DefaultTokenTTL - time.Second)
	_, err = a.ValidateToken(token)
	require.NoError(t, err)

	clock.now = clock.now.Add(2 * time.Second)
	_, err = a.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTAuthenticator_RejectsTampering(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	a := newTestAuthenticator(t, clock)

	token, err := a.GenerateToken("alice", time.Hour)
	require.NoError(t, err)

	other, err := NewJWTAuthenticator("another-secret", "HS256", WithClock(clock.Now))
	require.NoError(t, err)
	forged, err := other.GenerateToken("mallory", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forgedParts := strings.Split(forged, ".")

	tests := map[string]string{
		"garbage":           "not-a-token",
		"empty":             "",
		"foreign signature": forged,
		"swapped payload":   parts[0] + "." + forgedParts[1] + "." + parts[2],
		"truncated":         parts[0] + "." + parts[1],
	}

	for name, candidate := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := a.ValidateToken(candidate)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTAuthenticator_RejectsOtherAlgorithms(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	a := newTestAuthenticator(t, clock)

	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = a.ValidateToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = a.ValidateToken(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTAuthenticator_RequiresSubjectAndExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	a := newTestAuthenticator(t, clock)

	_, err := a.GenerateToken("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSubjectName)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = a.ValidateToken(noExpiry)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = a.ValidateToken(noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTAuthenticator_Issuer(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	a := newTestAuthenticator(t, clock, WithIssuer("ai-tutor-api"))
	b := newTestAuthenticator(t, clock, WithIssuer("someone-else"))

	token, err := b.GenerateToken("alice", time.Hour)
	require.NoError(t, err)

	_, err = a.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, err = a.GenerateToken("alice", time.Hour)
	require.NoError(t, err)
	subject, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}
