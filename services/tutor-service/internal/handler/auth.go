package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/model"
	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/payload"
	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/repository"
	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/usecase"
	"github.com/vasapolrittideah/ai-tutor-api/shared/provider"
)

const tokenTypeBearer = "bearer"

func (h *HTTPHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req payload.SignupRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.respondInvalid(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondInvalid(w, r, err)
		return
	}

	user, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			h.respondError(w, r, http.StatusBadRequest, "Username already registered")
		case errors.Is(err, repository.ErrDuplicateEmail):
			h.respondError(w, r, http.StatusBadRequest, "Email already registered")
		default:
			h.logger.Error().Err(err).Msg("failed to create user")
			h.respondError(w, r, http.StatusServiceUnavailable, "Unable to create user account. Please try again later.")
		}
		return
	}

	render.JSON(w, r, toUserResponse(user, nil))
}

// token implements the OAuth2 password grant. Both form and JSON bodies are accepted.
func (h *HTTPHandler) token(w http.ResponseWriter, r *http.Request) {
	var req payload.TokenRequest
	if err := render.Decode(r, &req); err != nil {
		h.respondInvalid(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondInvalid(w, r, err)
		return
	}

	accessToken, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			h.respondUnauthorized(w, r, "Incorrect username or password")
		case errors.Is(err, usecase.ErrInactiveSubject):
			h.respondError(w, r, http.StatusBadRequest, detailInactiveUser)
		default:
			h.logger.Error().Err(err).Msg("failed to log in")
			h.respondError(w, r, http.StatusServiceUnavailable, detailDatabaseError)
		}
		return
	}

	render.JSON(w, r, payload.TokenResponse{AccessToken: accessToken, TokenType: tokenTypeBearer})
}

func (h *HTTPHandler) me(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	history, err := h.tutorUsecase.History(r.Context(), user)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to load usage history")
		h.respondError(w, r, http.StatusServiceUnavailable, detailDatabaseError)
		return
	}

	render.JSON(w, r, toUserResponse(user, history))
}

func (h *HTTPHandler) googleAuth(w http.ResponseWriter, r *http.Request) {
	var req payload.GoogleAuthRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.respondInvalid(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondInvalid(w, r, err)
		return
	}

	result, err := h.authUsecase.LoginWithGoogle(r.Context(), req.AccessToken)
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrInvalidProviderToken):
			h.respondUnauthorized(w, r, "Invalid Google token")
		case errors.Is(err, usecase.ErrInactiveSubject):
			h.respondError(w, r, http.StatusBadRequest, detailInactiveUser)
		default:
			h.logger.Error().Err(err).Msg("google authentication failed")
			h.respondError(w, r, http.StatusInternalServerError, "Authentication failed")
		}
		return
	}

	render.JSON(w, r, payload.GoogleAuthResponse{
		AccessToken: result.AccessToken,
		TokenType:   tokenTypeBearer,
		User: payload.GoogleAuthUser{
			Username: result.User.Username,
			Email:    result.User.Email,
			FullName: result.User.FullName,
		},
	})
}

// toUserResponse renders user. A nil history renders as empty lists.
func toUserResponse(user *model.User, history *usecase.UsageHistory) payload.UserResponse {
	resp := payload.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		Disabled:  user.Disabled,
		CreatedAt: user.CreatedAt,
		Picture:   user.Picture,
		Queries:   []payload.QueryResponse{},
		Documents: []payload.DocumentResponse{},
	}
	if history == nil {
		return resp
	}

	for _, q := range history.Queries {
		resp.Queries = append(resp.Queries, payload.QueryResponse{
			ID:        q.ID,
			Topic:     q.Topic,
			Response:  q.Response,
			UserID:    q.UserID,
			CreatedAt: q.CreatedAt,
		})
	}
	for _, d := range history.Documents {
		resp.Documents = append(resp.Documents, payload.DocumentResponse{
			ID:        d.ID,
			Filename:  d.Filename,
			Content:   d.Content,
			Response:  d.Response,
			UserID:    d.UserID,
			CreatedAt: d.CreatedAt,
		})
	}

	return resp
}
