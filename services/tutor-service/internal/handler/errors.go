package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/payload"
	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/usecase"
	"github.com/vasapolrittideah/ai-tutor-api/shared/auth"
	"github.com/vasapolrittideah/ai-tutor-api/shared/interceptor"
	"github.com/vasapolrittideah/ai-tutor-api/shared/validator"
)

const (
	detailCouldNotValidate = "Could not validate credentials"
	detailInactiveUser     = "Inactive user"
	detailDatabaseError    = "Database error occurred. Please try again later."
)

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, status int, detail any) {
	render.Status(r, status)
	render.JSON(w, r, payload.ErrorResponse{Detail: detail})
}

func (h *HTTPHandler) respondUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	h.respondError(w, r, http.StatusUnauthorized, detail)
}

// respondInvalid writes a 422 for malformed or invalid request payloads.
func (h *HTTPHandler) respondInvalid(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		h.respondError(w, r, http.StatusUnprocessableEntity, verr.Fields)
		return
	}

	h.respondError(w, r, http.StatusUnprocessableEntity, "Invalid request body")
}

// authError maps bearer authentication failures to responses.
func (h *HTTPHandler) authError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, interceptor.ErrMissingAuthorization),
		errors.Is(err, interceptor.ErrInvalidAuthorizationFormat),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, usecase.ErrUnknownSubject):
		h.respondUnauthorized(w, r, detailCouldNotValidate)
	case errors.Is(err, usecase.ErrInactiveSubject):
		h.respondError(w, r, http.StatusBadRequest, detailInactiveUser)
	default:
		h.logger.Error().Err(err).Msg("failed to resolve bearer token")
		h.respondError(w, r, http.StatusServiceUnavailable, detailDatabaseError)
	}
}
