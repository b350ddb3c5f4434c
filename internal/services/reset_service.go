package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/isdelr/resume-bot-be/internal/export"
	"github.com/isdelr/resume-bot-be/internal/models"
	"github.com/rs/zerolog/log"
)

// ResetOutcome reports where a reset step left the flow. FallbackCode is
// only set when the code could not be emailed and in-app display is on.
type ResetOutcome struct {
	Step         models.ResetStep `json:"step"`
	FallbackCode string           `json:"fallbackCode,omitempty"`
}

// ResetServiceProvider defines the password reset workflow.
type ResetServiceProvider interface {
	Begin(sess *models.Session) ResetOutcome
	SubmitEmail(ctx context.Context, sess *models.Session, email string) (ResetOutcome, error)
	VerifyCode(ctx context.Context, sess *models.Session, code string) (ResetOutcome, error)
	Resend(ctx context.Context, sess *models.Session) (ResetOutcome, error)
	ResetPassword(ctx context.Context, sess *models.Session, newPassword, confirm string) error
	Cancel(ctx context.Context, sess *models.Session)
}

// ResetService drives REQUEST_EMAIL -> OTP_SENT -> VERIFIED -> done.
type ResetService struct {
	users    UserServiceProvider
	mailer   export.Mailer
	ttl      time.Duration
	fallback bool
	now      func() time.Time
	newCode  func() (string, error)
}

// NewResetService creates a new ResetService. When fallback is true a code
// that cannot be delivered is returned for in-app display instead.
func NewResetService(users UserServiceProvider, mailer export.Mailer, ttl time.Duration, fallback bool) *ResetService {
	return &ResetService{
		users:    users,
		mailer:   mailer,
		ttl:      ttl,
		fallback: fallback,
		now:      time.Now,
		newCode:  generateCode,
	}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func requireStep(sess *models.Session, step models.ResetStep) error {
	if sess.Reset == nil || sess.Reset.Step != step {
		return fmt.Errorf("%w: expected %s", common.ErrInvalidResetStep, step)
	}
	return nil
}

// Begin enters the flow at REQUEST_EMAIL, restarting any flow in progress.
func (s *ResetService) Begin(sess *models.Session) ResetOutcome {
	sess.Reset = &models.ResetState{Step: models.ResetRequestEmail}
	return ResetOutcome{Step: models.ResetRequestEmail}
}

// SubmitEmail issues a code for email and moves to OTP_SENT. Unknown
// addresses advance too, so the response does not reveal which accounts exist.
func (s *ResetService) SubmitEmail(ctx context.Context, sess *models.Session, email string) (ResetOutcome, error) {
	if err := requireStep(sess, models.ResetRequestEmail); err != nil {
		return ResetOutcome{}, err
	}
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return ResetOutcome{Step: models.ResetRequestEmail}, fmt.Errorf("%w: a valid email is required", common.ErrValidation)
	}

	fallbackCode, err := s.issue(ctx, email)
	if err != nil {
		return ResetOutcome{Step: models.ResetRequestEmail}, err
	}

	sess.Reset = &models.ResetState{Step: models.ResetOTPSent, Email: email, IssuedAt: s.now().UTC()}
	return ResetOutcome{Step: models.ResetOTPSent, FallbackCode: fallbackCode}, nil
}

// issue stores a fresh code and emails it. It returns the code itself only
// when delivery failed and the in-app fallback applies.
func (s *ResetService) issue(ctx context.Context, email string) (string, error) {
	code, err := s.newCode()
	if err != nil {
		return "", err
	}

	if err := s.users.SetResetCode(ctx, email, code, s.now().Add(s.ttl)); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			log.Info().Str("email", email).Msg("Password reset requested for unknown email")
			return "", nil
		}
		return "", err
	}

	msg, err := export.RenderOTPEmail(email, code, s.ttl)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err == nil {
		return "", nil
	}

	canFallBack := errors.Is(err, common.ErrEmailNotConfigured) || errors.Is(err, common.ErrEmailTransport)
	if s.fallback && canFallBack {
		log.Warn().Err(err).Str("email", email).Msg("Reset code not emailed, showing it in app")
		return code, nil
	}

	log.Error().Err(err).Str("email", email).Msg("Failed to send reset code")
	if clearErr := s.users.ClearResetCode(ctx, email); clearErr != nil {
		log.Error().Err(clearErr).Str("email", email).Msg("Failed to clear undelivered reset code")
	}
	return "", err
}

// VerifyCode moves OTP_SENT to VERIFIED when code matches the pending,
// unexpired code. A failure leaves the flow in OTP_SENT.
func (s *ResetService) VerifyCode(ctx context.Context, sess *models.Session, code string) (ResetOutcome, error) {
	if err := requireStep(sess, models.ResetOTPSent); err != nil {
		return ResetOutcome{}, err
	}
	if err := s.users.CheckResetCode(ctx, sess.Reset.Email, strings.TrimSpace(code), s.now()); err != nil {
		return ResetOutcome{Step: models.ResetOTPSent}, err
	}
	sess.Reset.Step = models.ResetVerified
	return ResetOutcome{Step: models.ResetVerified}, nil
}

// Resend replaces the pending code with a new one. The step is unchanged.
func (s *ResetService) Resend(ctx context.Context, sess *models.Session) (ResetOutcome, error) {
	if err := requireStep(sess, models.ResetOTPSent); err != nil {
		return ResetOutcome{}, err
	}
	fallbackCode, err := s.issue(ctx, sess.Reset.Email)
	if err != nil {
		return ResetOutcome{Step: models.ResetOTPSent}, err
	}
	sess.Reset.IssuedAt = s.now().UTC()
	return ResetOutcome{Step: models.ResetOTPSent, FallbackCode: fallbackCode}, nil
}

// ResetPassword stores the new password, consumes the code and ends the flow
// logged out, whoever the session belonged to.
func (s *ResetService) ResetPassword(ctx context.Context, sess *models.Session, newPassword, confirm string) error {
	if err := requireStep(sess, models.ResetVerified); err != nil {
		return err
	}
	if err := ValidateNewPassword(newPassword, confirm); err != nil {
		return err
	}

	email := sess.Reset.Email
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.ResetTokenHash == "" || user.ResetTokenExpiry == nil || !s.now().Before(*user.ResetTokenExpiry) {
		sess.Reset = &models.ResetState{Step: models.ResetRequestEmail}
		return fmt.Errorf("%w: code expired before the password was set", common.ErrInvalidOneTimeCode)
	}

	if err := s.users.SetPassword(ctx, user.ID, newPassword); err != nil {
		return err
	}
	if err := s.users.ClearResetCode(ctx, email); err != nil {
		return err
	}

	log.Info().Int64("user_id", user.ID).Msg("Password reset completed")
	sess.Logout()
	return nil
}

// Cancel abandons the flow from any step and drops a pending code.
func (s *ResetService) Cancel(ctx context.Context, sess *models.Session) {
	if sess.Reset != nil && sess.Reset.Email != "" {
		if err := s.users.ClearResetCode(ctx, sess.Reset.Email); err != nil {
			log.Warn().Err(err).Msg("Failed to clear reset code on cancel")
		}
	}
	sess.Reset = nil
}
