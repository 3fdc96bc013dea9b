package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is used when GenerateToken is called without a ttl.
const DefaultTokenTTL = 15 * time.Minute

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrUnsupportedAlg     = errors.New("unsupported signing algorithm")
	ErrMissingSigningKey  = errors.New("missing signing key")
	ErrMissingSubjectName = errors.New("missing token subject")
)

// JWTAuthenticator issues and validates HMAC signed bearer tokens that carry a
// subject and an absolute expiry.
type JWTAuthenticator struct {
	secret []byte
	method jwt.SigningMethod
	issuer string
	now    func() time.Time
}

// Option configures a JWTAuthenticator.
type Option func(*JWTAuthenticator)

// WithIssuer sets the iss claim on issued tokens and requires it on validation.
func WithIssuer(issuer string) Option {
	return func(a *JWTAuthenticator) {
		a.issuer = issuer
	}
}

// WithClock replaces the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(a *JWTAuthenticator) {
		a.now = now
	}
}

// NewJWTAuthenticator creates a new JWTAuthenticator instance. The algorithm must
// name an HMAC method (HS256, HS384 or HS512).
func NewJWTAuthenticator(secret, algorithm string, opts ...Option) (*JWTAuthenticator, error) {
	if secret == "" {
		return nil, ErrMissingSigningKey
	}

	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlg, algorithm)
	}

	a := &JWTAuthenticator{
		secret: []byte(secret),
		method: method,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// GenerateToken signs a token for subject that expires ttl from now.
// A non-positive ttl falls back to DefaultTokenTTL.
func (a *JWTAuthenticator) GenerateToken(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrMissingSubjectName
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.NewWithClaims(a.method, claims).SignedString(a.secret)
}

// ValidateToken verifies the signature and expiry of token and returns the
// embedded subject. Resolving the subject to a user is left to the caller.
func (a *JWTAuthenticator) ValidateToken(token string) (string, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{a.method.Alg()}),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(a.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return a.secret, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}

		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
