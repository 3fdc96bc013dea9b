package handler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/vasapolrittideah/ai-tutor-api/shared/ratelimit"
)

const requestIDHeader = "X-Request-ID"

// requestID keeps an incoming request id or assigns a new uuid, and exposes it
// through middleware.GetReqID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *HTTPHandler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		event := h.logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = h.logger.Error()
		case status >= http.StatusBadRequest:
			event = h.logger.Warn()
		}

		event.
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("handled request")
	})
}

// recoverer turns a panicking handler into a 500 with a JSON detail.
func (h *HTTPHandler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			h.logger.Error().
				Str("request_id", middleware.GetReqID(r.Context())).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("recovered from panic")
			h.respondError(w, r, http.StatusInternalServerError, "Internal Server Error")
		}()

		next.ServeHTTP(w, r)
	})
}

// rateLimit rejects requests once the client address used up the quota of
// endpoint. Rejected requests never reach the handler.
func (h *HTTPHandler) rateLimit(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := h.limiter.Allow(endpoint, ratelimit.ClientAddr(r.RemoteAddr))
			if err != nil {
				if !errors.Is(err, ratelimit.ErrRateLimitExceeded) {
					h.logger.Error().Err(err).Str("endpoint", endpoint).Msg("rate limiter failed")
					h.respondError(w, r, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again later.")
					return
				}

				policy, _ := h.limiter.Policy(endpoint)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
				w.Header().Set("X-RateLimit-Remaining", "0")
				h.respondError(w, r, http.StatusTooManyRequests, fmt.Sprintf("Rate limit exceeded: %s", policy))
				return
			}

			if result.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			}

			next.ServeHTTP(w, r)
		})
	}
}
