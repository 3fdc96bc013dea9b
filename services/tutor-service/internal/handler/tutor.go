package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/render"

	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/payload"
	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/usecase"
)

const uploadField = "file"

func (h *HTTPHandler) askTutor(w http.ResponseWriter, r *http.Request) {
	var req payload.TutorRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.respondInvalid(w, r, err)
		return
	}

	h.answer(w, r, req)
}

func (h *HTTPHandler) askTutorQuery(w http.ResponseWriter, r *http.Request) {
	h.answer(w, r, payload.TutorRequest{Topic: r.URL.Query().Get("topic")})
}

func (h *HTTPHandler) answer(w http.ResponseWriter, r *http.Request, req payload.TutorRequest) {
	if err := h.validator.Struct(req); err != nil {
		h.respondInvalid(w, r, err)
		return
	}

	answer, err := h.tutorUsecase.Ask(r.Context(), currentUser(r), req.Topic)
	if err != nil {
		h.tutorError(w, r, err)
		return
	}

	render.JSON(w, r, payload.TutorResponse{Response: answer.Response, User: answer.User})
}

func (h *HTTPHandler) upload(w http.ResponseWriter, r *http.Request) {
	// room for the multipart envelope around the file itself
	r.Body = http.MaxBytesReader(w, r.Body, h.options.MaxUploadBytes+64<<10)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		h.respondError(w, r, http.StatusUnprocessableEntity, map[string]string{uploadField: "file is a required field"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.options.MaxUploadBytes+1))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Unable to read uploaded file")
		return
	}
	if int64(len(content)) > h.options.MaxUploadBytes {
		h.respondError(w, r, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	analysis, err := h.tutorUsecase.AnalyzeDocument(r.Context(), currentUser(r), header.Filename, content)
	if err != nil {
		h.tutorError(w, r, err)
		return
	}

	render.JSON(w, r, payload.UploadResponse{
		Response: analysis.Response,
		Filename: analysis.Filename,
		User:     analysis.User,
	})
}

func (h *HTTPHandler) tutorError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usecase.ErrEmptyTopic):
		h.respondError(w, r, http.StatusUnprocessableEntity, map[string]string{"topic": "topic must not be blank"})
	case errors.Is(err, usecase.ErrInvalidDocument):
		h.respondError(w, r, http.StatusBadRequest, "File must be a non-empty UTF-8 text document")
	case errors.Is(err, usecase.ErrExternalServiceFailure):
		h.respondError(w, r, http.StatusInternalServerError, err.Error())
	default:
		h.logger.Error().Err(err).Msg("tutor request failed")
		h.respondError(w, r, http.StatusServiceUnavailable, detailDatabaseError)
	}
}
