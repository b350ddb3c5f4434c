package handlers

import (
	"net/http"

	"github.com/isdelr/resume-bot-be/internal/services"
	"github.com/isdelr/resume-bot-be/internal/session"
)

// ResetHandler exposes the forgot-password flow.
type ResetHandler struct {
	service  services.ResetServiceProvider
	sessions *session.Manager
}

// NewResetHandler creates a new ResetHandler.
func NewResetHandler(service services.ResetServiceProvider, sessions *session.Manager) *ResetHandler {
	return &ResetHandler{service: service, sessions: sessions}
}

func (h *ResetHandler) Begin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Begin(session.FromContext(r.Context())))
}

func (h *ResetHandler) SubmitEmail(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	out, err := h.service.SubmitEmail(r.Context(), session.FromContext(r.Context()), payload.Email)
	if err != nil {
		writeError(w, r, err, "send reset code")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ResetHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	out, err := h.service.VerifyCode(r.Context(), session.FromContext(r.Context()), payload.Code)
	if err != nil {
		writeError(w, r, err, "verify reset code")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ResetHandler) Resend(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Resend(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "resend reset code")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ResetHandler) Password(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	sess := session.FromContext(r.Context())
	wasLoggedIn := sess.Authenticated()
	if err := h.service.ResetPassword(r.Context(), sess, payload.NewPassword, payload.ConfirmPassword); err != nil {
		writeError(w, r, err, "reset password")
		return
	}
	if wasLoggedIn {
		if err := h.sessions.Rotate(r.Context(), w, sess); err != nil {
			writeError(w, r, err, "rotate session")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully. Please log in."})
}

func (h *ResetHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.service.Cancel(r.Context(), session.FromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}
