package handlers

import (
	"net/http"

	"github.com/isdelr/resume-bot-be/internal/services"
	"github.com/isdelr/resume-bot-be/internal/session"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles signup, login and logout.
type AuthHandler struct {
	service  services.UserServiceProvider
	sessions *session.Manager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.UserServiceProvider, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{service: service, sessions: sessions}
}

// SignupPayload defines the structure for registration requests.
type SignupPayload struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup creates an account. The caller still has to log in.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := services.ValidateNewPassword(payload.Password, payload.ConfirmPassword); err != nil {
		writeError(w, r, err, "register user")
		return
	}

	user, err := h.service.CreateUser(r.Context(), payload.Username, payload.Email, payload.Phone, payload.Password)
	if err != nil {
		writeError(w, r, err, "register user")
		return
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	writeJSON(w, http.StatusCreated, user)
}

// Login binds the session to the authenticated user.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, r, err, "authenticate user")
		return
	}

	sess := session.FromContext(r.Context())
	sess.Login(user.ID)
	if err := h.sessions.Rotate(r.Context(), w, sess); err != nil {
		writeError(w, r, err, "rotate session")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Logout drops the user and all flow state from the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.Logout()
	if err := h.sessions.Rotate(r.Context(), w, sess); err != nil {
		writeError(w, r, err, "rotate session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the logged-in user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, user)
}
