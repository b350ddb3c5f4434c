package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/isdelr/resume-bot-be/internal/export"
	"github.com/isdelr/resume-bot-be/internal/feedback"
	"github.com/isdelr/resume-bot-be/internal/ingest"
	"github.com/isdelr/resume-bot-be/internal/models"
	"github.com/rs/zerolog/log"
)

// Event names pushed to a user's live connections.
const (
	EventAnalysisCompleted = "analysis_completed"
	EventHistoryCleared    = "history_cleared"
	EventProfileUpdated    = "profile_updated"
)

// Notifier pushes an event to every live connection of a user.
type Notifier interface {
	Notify(userID int64, event string, payload interface{})
}

// EmailOutcome reports how an emailed report was handled. When Sent is
// false, FallbackHTML holds the report for in-app display.
type EmailOutcome struct {
	Sent         bool   `json:"sent"`
	FallbackHTML string `json:"fallbackHtml,omitempty"`
}

// AnalysisServiceProvider defines the upload and export workflow.
type AnalysisServiceProvider interface {
	Analyze(ctx context.Context, sess *models.Session, filename, declaredType string, data []byte, targetRole string) (*models.Analysis, error)
	Rewrite(sess *models.Session) (string, error)
	Clear(sess *models.Session)
	AudioTips(ctx context.Context, sess *models.Session) ([]byte, error)
	EmailReport(ctx context.Context, sess *models.Session, user models.User) (EmailOutcome, error)
	ResumePDF(sess *models.Session) ([]byte, string, error)
	ResumeText(sess *models.Session) (string, string, error)
}

// AnalysisService runs ingestion, scoring, persistence and the exports
// against the session's current analysis.
type AnalysisService struct {
	history  FeedbackServiceProvider
	analyzer feedback.Analyzer
	mailer   export.Mailer
	speech   export.Synthesizer
	notifier Notifier
	ttsLang  string
	fallback bool
}

// AnalysisDeps groups the collaborators of an AnalysisService.
type AnalysisDeps struct {
	History  FeedbackServiceProvider
	Analyzer feedback.Analyzer
	Mailer   export.Mailer
	Speech   export.Synthesizer
	Notifier Notifier
	TTSLang  string
	Fallback bool
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(deps AnalysisDeps) *AnalysisService {
	if deps.TTSLang == "" {
		deps.TTSLang = "en"
	}
	return &AnalysisService{
		history:  deps.History,
		analyzer: deps.Analyzer,
		mailer:   deps.Mailer,
		speech:   deps.Speech,
		notifier: deps.Notifier,
		ttsLang:  deps.TTSLang,
		fallback: deps.Fallback,
	}
}

// Analyze extracts the document text, scores it, stores a history record
// and makes it the session's current analysis.
func (s *AnalysisService) Analyze(ctx context.Context, sess *models.Session, filename, declaredType string, data []byte, targetRole string) (*models.Analysis, error) {
	if !sess.Authenticated() {
		return nil, common.ErrUnauthorized
	}
	filename = filepath.Base(strings.TrimSpace(filename))
	targetRole = strings.TrimSpace(targetRole)
	if filename == "" || filename == "." || targetRole == "" {
		return nil, fmt.Errorf("%w: a file and a target role are required", common.ErrValidation)
	}

	kind := ingest.DetectType(filename, declaredType, data)
	text, err := ingest.ExtractText(data, kind)
	if err != nil {
		return nil, err
	}

	narrative, score := s.analyzer.Generate(text, targetRole)
	record, err := s.history.Append(ctx, models.FeedbackRecord{
		UserID:     *sess.UserID,
		Filename:   filename,
		TargetRole: targetRole,
		Feedback:   narrative,
		Score:      score,
	})
	if err != nil {
		return nil, err
	}

	analysis := &models.Analysis{
		RecordID:   record.ID,
		Filename:   filename,
		TargetRole: targetRole,
		Feedback:   narrative,
		Score:      score,
		ResumeText: text,
	}
	sess.Analysis = analysis
	sess.Rewritten = ""

	log.Info().Int64("user_id", record.UserID).Str("filename", filename).Int("score", score).Msg("Resume analyzed")
	if s.notifier != nil {
		s.notifier.Notify(record.UserID, EventAnalysisCompleted, record)
	}
	return analysis, nil
}

// Rewrite produces the rewritten resume for the current analysis.
func (s *AnalysisService) Rewrite(sess *models.Session) (string, error) {
	if sess.Analysis == nil {
		return "", common.ErrNoAnalysis
	}
	a := sess.Analysis
	sess.Rewritten = s.analyzer.Rewrite(a.ResumeText, a.TargetRole, a.Feedback)
	return sess.Rewritten, nil
}

// Clear drops the current analysis and rewrite. Stored history is untouched.
func (s *AnalysisService) Clear(sess *models.Session) {
	sess.Analysis = nil
	sess.Rewritten = ""
}

// AudioTips speaks the coaching script for the current target role.
func (s *AnalysisService) AudioTips(ctx context.Context, sess *models.Session) ([]byte, error) {
	if sess.Analysis == nil {
		return nil, common.ErrNoAnalysis
	}
	return s.speech.Synthesize(ctx, export.CoachingScript(sess.Analysis.TargetRole), s.ttsLang)
}

// EmailReport sends the analysis report to the user. Undeliverable reports
// come back as HTML when the in-app fallback is enabled.
func (s *AnalysisService) EmailReport(ctx context.Context, sess *models.Session, user models.User) (EmailOutcome, error) {
	a := sess.Analysis
	if a == nil {
		return EmailOutcome{}, common.ErrNoAnalysis
	}
	msg, err := export.RenderFeedbackEmail(user.Email, a.Filename, a.TargetRole, a.Feedback, a.Score)
	if err != nil {
		return EmailOutcome{}, fmt.Errorf("%w: %v", common.ErrExportGeneration, err)
	}

	err = s.mailer.Send(ctx, msg)
	if err == nil {
		return EmailOutcome{Sent: true}, nil
	}
	if s.fallback && (errors.Is(err, common.ErrEmailNotConfigured) || errors.Is(err, common.ErrEmailTransport)) {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("Report not emailed, returning it for in-app display")
		return EmailOutcome{FallbackHTML: msg.HTML}, nil
	}
	log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to email report")
	return EmailOutcome{}, err
}

// ResumePDF renders the rewritten resume as a PDF and names the download.
func (s *AnalysisService) ResumePDF(sess *models.Session) ([]byte, string, error) {
	if sess.Rewritten == "" || sess.Analysis == nil {
		return nil, "", fmt.Errorf("%w: no rewritten resume yet", common.ErrNoAnalysis)
	}
	out, err := export.RenderResumePDF(sess.Rewritten)
	if err != nil {
		return nil, "", err
	}
	base := strings.TrimSuffix(sess.Analysis.Filename, filepath.Ext(sess.Analysis.Filename))
	return out, "rewritten_" + base + ".pdf", nil
}

// ResumeText returns the rewritten resume and its download filename.
func (s *AnalysisService) ResumeText(sess *models.Session) (string, string, error) {
	if sess.Rewritten == "" || sess.Analysis == nil {
		return "", "", fmt.Errorf("%w: no rewritten resume yet", common.ErrNoAnalysis)
	}
	return sess.Rewritten, "rewritten_" + sess.Analysis.Filename + ".txt", nil
}
