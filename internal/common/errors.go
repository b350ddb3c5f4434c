// Package common defines the sentinel errors shared by the store, workflow,
// adapter and HTTP layers. Callers match them with errors.Is.
package common

import "errors"

var (
	// Credential store errors.
	ErrDuplicateCredential = errors.New("username or email already exists")
	ErrInvalidCredential   = errors.New("invalid credentials")

	// Password reset flow errors.
	ErrInvalidOneTimeCode = errors.New("invalid or expired one-time code")
	ErrInvalidResetStep   = errors.New("action not allowed at this password reset step")

	// Ingestion errors.
	ErrUnsupportedOrCorruptDocument = errors.New("unsupported or corrupt document")

	// Export adapter errors.
	ErrEmailNotConfigured = errors.New("email delivery is not configured")
	ErrEmailAuth          = errors.New("email authentication failed")
	ErrEmailTransport     = errors.New("email transport failure")
	ErrExportGeneration   = errors.New("export generation failed")

	// Generic service errors.
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNoAnalysis   = errors.New("no analysis in progress")
)
