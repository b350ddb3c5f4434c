package handlers

import (
	"net/http"

	"github.com/isdelr/resume-bot-be/internal/services"
)

// AdminHandler serves the admin tab.
type AdminHandler struct {
	service services.AdminServiceProvider
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service services.AdminServiceProvider) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, r, err, "load admin stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.Users(r.Context())
	if err != nil {
		writeError(w, r, err, "list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}
