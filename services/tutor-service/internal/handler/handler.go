package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/config"
	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/model"
	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/usecase"
	"github.com/vasapolrittideah/ai-tutor-api/shared/interceptor"
	"github.com/vasapolrittideah/ai-tutor-api/shared/ratelimit"
	"github.com/vasapolrittideah/ai-tutor-api/shared/validator"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the HTTP surface.
type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	HealthTimeout  time.Duration
}

type HTTPHandler struct {
	authUsecase  usecase.AuthUsecase
	tutorUsecase usecase.TutorUsecase
	limiter      *ratelimit.Registry
	validator    *validator.Validator
	pinger       Pinger
	logger       *zerolog.Logger
	options      Options
}

func NewHTTPHandler(
	authUsecase usecase.AuthUsecase,
	tutorUsecase usecase.TutorUsecase,
	limiter *ratelimit.Registry,
	validate *validator.Validator,
	pinger Pinger,
	logger *zerolog.Logger,
	options Options,
) *HTTPHandler {
	if options.MaxUploadBytes <= 0 {
		options.MaxUploadBytes = 1 << 20
	}
	if options.HealthTimeout <= 0 {
		options.HealthTimeout = 2 * time.Second
	}

	return &HTTPHandler{
		authUsecase:  authUsecase,
		tutorUsecase: tutorUsecase,
		limiter:      limiter,
		validator:    validate,
		pinger:       pinger,
		logger:       logger,
		options:      options,
	}
}

// Router builds the chi router serving every endpoint. Rate limits are checked
// before bearer authentication.
func (h *HTTPHandler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(h.requestLogger)
	r.Use(h.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.options.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.respondError(w, r, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.respondError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	authenticated := interceptor.NewJWTMiddleware[*model.User](h.authUsecase.Authenticate, h.authError)

	r.Get("/health", h.health)
	r.Post("/signup", h.signup)
	r.Post("/token", h.token)
	r.Post("/auth/google", h.googleAuth)
	r.With(authenticated).Get("/users/me", h.me)

	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit(config.EndpointTutor), authenticated)
		r.Post("/tutor", h.askTutor)
		r.Get("/tutor", h.askTutorQuery)
	})

	r.With(h.rateLimit(config.EndpointUpload), authenticated).Post("/upload", h.upload)

	return r
}

func currentUser(r *http.Request) *model.User {
	user, _ := interceptor.PrincipalFromContext[*model.User](r.Context())
	return user
}
