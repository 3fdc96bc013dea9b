package interceptor

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrMissingAuthorization       = errors.New("missing authorization header")
	ErrInvalidAuthorizationFormat = errors.New("invalid authorization header format")
)

type contextKey struct{}

// UserKey is the context key under which the resolved principal is stored.
var UserKey = contextKey{}

// ResolveFunc turns a bearer token into a principal.
type ResolveFunc[T any] func(ctx context.Context, token string) (T, error)

// ErrorFunc writes the response for a rejected request.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// NewJWTMiddleware returns HTTP middleware that requires a bearer token,
// resolves it with resolve and stores the principal in the request context.
func NewJWTMiddleware[T any](resolve ResolveFunc[T], onError ErrorFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ExtractBearerToken(r)
			if err != nil {
				onError(w, r, err)
				return
			}

			principal, err := resolve(r.Context(), token)
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the principal stored by NewJWTMiddleware.
func PrincipalFromContext[T any](ctx context.Context) (T, bool) {
	principal, ok := ctx.Value(UserKey).(T)
	return principal, ok
}

// ExtractBearerToken reads the token from the Authorization header.
func ExtractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthorization
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidAuthorizationFormat
	}

	return strings.TrimSpace(parts[1]), nil
}
