package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/isdelr/resume-bot-be/internal/models"
	"github.com/isdelr/resume-bot-be/internal/services"
	"github.com/isdelr/resume-bot-be/internal/session"
)

// AnalysisHandler handles resume uploads and the exports of the current
// analysis.
type AnalysisHandler struct {
	service        services.AnalysisServiceProvider
	maxUploadBytes int64
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(service services.AnalysisServiceProvider, maxUploadBytes int64) *AnalysisHandler {
	return &AnalysisHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// AnalysisView is the current analysis plus its rewrite, if any.
type AnalysisView struct {
	Analysis  *models.Analysis `json:"analysis"`
	Rewritten string           `json:"rewritten,omitempty"`
}

// Analyze accepts a multipart upload with a "file" part and a "targetRole"
// field.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "A resume file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	sess := session.FromContext(r.Context())
	analysis, err := h.service.Analyze(r.Context(), sess, header.Filename, header.Header.Get("Content-Type"), data, r.FormValue("targetRole"))
	if err != nil {
		writeError(w, r, err, "analyze resume")
		return
	}
	writeJSON(w, http.StatusOK, AnalysisView{Analysis: analysis})
}

func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess.Analysis == nil {
		writeError(w, r, common.ErrNoAnalysis, "load analysis")
		return
	}
	writeJSON(w, http.StatusOK, AnalysisView{Analysis: sess.Analysis, Rewritten: sess.Rewritten})
}

func (h *AnalysisHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.service.Clear(session.FromContext(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AnalysisHandler) Rewrite(w http.ResponseWriter, r *http.Request) {
	text, err := h.service.Rewrite(session.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "rewrite resume")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"rewritten": text})
}

func (h *AnalysisHandler) DownloadText(w http.ResponseWriter, r *http.Request) {
	text, name, err := h.service.ResumeText(session.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "download rewritten resume")
		return
	}
	writeAttachment(w, "text/plain; charset=utf-8", name, []byte(text))
}

func (h *AnalysisHandler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	pdf, name, err := h.service.ResumePDF(session.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "render resume PDF")
		return
	}
	writeAttachment(w, "application/pdf", name, pdf)
}

// Audio streams the spoken coaching tips as MP3.
func (h *AnalysisHandler) Audio(w http.ResponseWriter, r *http.Request) {
	audio, err := h.service.AudioTips(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "generate audio tips")
		return
	}
	writeBody(w, "audio/mpeg", audio)
}

// Email sends the report to the user's address.
func (h *AnalysisHandler) Email(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	out, err := h.service.EmailReport(r.Context(), session.FromContext(r.Context()), user)
	if err != nil {
		writeError(w, r, err, "email report")
		return
	}
	writeJSON(w, http.StatusOK, out)
}
