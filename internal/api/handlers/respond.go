package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/rs/zerolog/log"
)

// StatusFor maps a service error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrDuplicateCredential),
		errors.Is(err, common.ErrInvalidResetStep),
		errors.Is(err, common.ErrNoAnalysis):
		return http.StatusConflict
	case errors.Is(err, common.ErrInvalidCredential),
		errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrInvalidOneTimeCode),
		errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnsupportedOrCorruptDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrEmailTransport),
		errors.Is(err, common.ErrEmailAuth):
		return http.StatusBadGateway
	case errors.Is(err, common.ErrEmailNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and replies with its mapped status. Unmapped errors
// are reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError && !errors.Is(err, common.ErrExportGeneration) {
		msg = "Internal server error"
	}

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Failed to " + action)

	http.Error(w, msg, status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	writeBody(w, contentType, body)
}

func writeBody(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(body); err != nil {
		log.Warn().Err(err).Str("content_type", contentType).Msg("Failed to write response body")
	}
}
