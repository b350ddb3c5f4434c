package handlers

import (
	"net/http"

	"github.com/isdelr/resume-bot-be/internal/services"
	"github.com/isdelr/resume-bot-be/internal/session"
)

// SettingsHandler handles the settings screen.
type SettingsHandler struct {
	service  services.UserServiceProvider
	notifier services.Notifier
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(service services.UserServiceProvider, notifier services.Notifier) *SettingsHandler {
	return &SettingsHandler{service: service, notifier: notifier}
}

func (h *SettingsHandler) Open(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).SettingsOpen = true
	w.WriteHeader(http.StatusNoContent)
}

func (h *SettingsHandler) Close(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).SettingsOpen = false
	w.WriteHeader(http.StatusNoContent)
}

// UpdateProfile changes username, email and phone.
func (h *SettingsHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), user.ID, payload.Username, payload.Email, payload.Phone)
	if err != nil {
		writeError(w, r, err, "update profile")
		return
	}
	h.notifier.Notify(user.ID, services.EventProfileUpdated, updated)
	writeJSON(w, http.StatusOK, updated)
}

// ChangePassword handles changing a user's password.
func (h *SettingsHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := services.ValidateNewPassword(payload.NewPassword, payload.ConfirmPassword); err != nil {
		writeError(w, r, err, "change password")
		return
	}
	if err := h.service.ChangePassword(r.Context(), user.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		writeError(w, r, err, "change password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}
