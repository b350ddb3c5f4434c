package handlers

import (
	"bytes"
	"net/http"

	"github.com/isdelr/resume-bot-be/internal/export"
	"github.com/isdelr/resume-bot-be/internal/models"
	"github.com/isdelr/resume-bot-be/internal/services"
	"github.com/isdelr/resume-bot-be/internal/session"
	"github.com/rs/zerolog/log"
)

// HistoryHandler serves a user's feedback history and analytics.
type HistoryHandler struct {
	service  services.FeedbackServiceProvider
	notifier services.Notifier
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(service services.FeedbackServiceProvider, notifier services.Notifier) *HistoryHandler {
	return &HistoryHandler{service: service, notifier: notifier}
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	records, err := h.service.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, "list history")
		return
	}
	if records == nil {
		records = []models.FeedbackRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// CSV exports the history as resume_history_<username>.csv.
func (h *HistoryHandler) CSV(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	records, err := h.service.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, "list history")
		return
	}
	var buf bytes.Buffer
	if err := export.WriteHistoryCSV(&buf, records); err != nil {
		writeError(w, r, err, "export history")
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", "resume_history_"+user.Username+".csv", buf.Bytes())
}

// RequestClear asks for confirmation before anything is deleted.
func (h *HistoryHandler) RequestClear(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).ConfirmClearHistory = true
	writeJSON(w, http.StatusOK, map[string]bool{"confirmClearHistory": true})
}

// ConfirmClear deletes the history once a clear has been requested.
func (h *HistoryHandler) ConfirmClear(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !sess.ConfirmClearHistory {
		http.Error(w, "Clearing history was not requested", http.StatusConflict)
		return
	}
	user, _ := UserFromContext(r.Context())
	n, err := h.service.DeleteAllForUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, "clear history")
		return
	}
	sess.ConfirmClearHistory = false

	log.Info().Int64("user_id", user.ID).Int64("deleted", n).Msg("History cleared")
	h.notifier.Notify(user.ID, services.EventHistoryCleared, map[string]int64{"deleted": n})
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (h *HistoryHandler) CancelClear(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).ConfirmClearHistory = false
	w.WriteHeader(http.StatusNoContent)
}

// Analytics returns the user's score statistics.
func (h *HistoryHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	stats, err := h.service.StatsForUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, "compute analytics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
