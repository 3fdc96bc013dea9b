package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/render"

	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/payload"
)

func (h *HTTPHandler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.options.HealthTimeout)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Error().Err(err).Msg("health check failed")
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, payload.HealthResponse{Status: "unhealthy", Database: "disconnected"})
		return
	}

	render.JSON(w, r, payload.HealthResponse{Status: "healthy", Database: "connected"})
}
