package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.ErrDuplicateCredential, http.StatusConflict},
		{common.ErrInvalidCredential, http.StatusUnauthorized},
		{common.ErrInvalidOneTimeCode, http.StatusBadRequest},
		{common.ErrUnsupportedOrCorruptDocument, http.StatusUnprocessableEntity},
		{common.ErrEmailTransport, http.StatusBadGateway},
		{common.ErrEmailAuth, http.StatusBadGateway},
		{common.ErrEmailNotConfigured, http.StatusServiceUnavailable},
		{common.ErrExportGeneration, http.StatusInternalServerError},
		{common.ErrValidation, http.StatusBadRequest},
		{common.ErrNotFound, http.StatusNotFound},
		{common.ErrUnauthorized, http.StatusUnauthorized},
		{common.ErrForbidden, http.StatusForbidden},
		{common.ErrInvalidResetStep, http.StatusConflict},
		{common.ErrNoAnalysis, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", common.ErrValidation), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestWriteAttachment_QuotesFilename(t *testing.T) {
	names := []string{
		"rewritten_cv.docx.txt",
		`rewritten_my "final" cv.pdf`,
		"rewritten_a;b=c.txt",
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeAttachment(rec, "text/plain; charset=utf-8", name, []byte("body"))

			disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
			require.NoError(t, err)
			assert.Equal(t, "attachment", disposition)
			assert.Equal(t, name, params["filename"])
			assert.Equal(t, "body", rec.Body.String())
		})
	}
}

type failingWriter struct {
	*httptest.ResponseRecorder
}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("client went away")
}

func TestWriteBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeBody(rec, "audio/mpeg", []byte("ID3"))
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ID3", rec.Body.String())

	w := failingWriter{httptest.NewRecorder()}
	assert.NotPanics(t, func() { writeBody(w, "audio/mpeg", []byte("ID3")) })
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
}
