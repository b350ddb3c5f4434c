package models

import "time"

// ResetStep is a state of the password reset flow.
type ResetStep string

const (
	ResetRequestEmail ResetStep = "REQUEST_EMAIL"
	ResetOTPSent      ResetStep = "OTP_SENT"
	ResetVerified     ResetStep = "VERIFIED"
)

// ResetState tracks an in-progress password reset. The code itself is only
// stored hashed on the user row.
type ResetState struct {
	Step     ResetStep `json:"step"`
	Email    string    `json:"email,omitempty"`
	IssuedAt time.Time `json:"issuedAt,omitempty"`
}

// Analysis is the result currently shown on the upload tab.
type Analysis struct {
	RecordID   int64  `json:"recordId"`
	Filename   string `json:"filename"`
	TargetRole string `json:"targetRole"`
	Feedback   string `json:"feedback"`
	Score      int    `json:"score"`
	ResumeText string `json:"resumeText"`
}

// Session is the per-client interaction state. It is plain data so any
// session store can serialize it.
type Session struct {
	ID        string    `json:"id"`
	UserID    *int64    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`

	Reset               *ResetState `json:"reset,omitempty"`
	SettingsOpen        bool        `json:"settingsOpen,omitempty"`
	Analysis            *Analysis   `json:"analysis,omitempty"`
	Rewritten           string      `json:"rewritten,omitempty"`
	ConfirmClearHistory bool        `json:"confirmClearHistory,omitempty"`
}

// Authenticated reports whether a user is logged in on this session.
func (s *Session) Authenticated() bool {
	return s.UserID != nil
}

// Login binds the session to a user and drops any leftover flow state.
func (s *Session) Login(userID int64) {
	s.ResetFlow()
	id := userID
	s.UserID = &id
}

// Logout clears the user and everything tied to them.
func (s *Session) Logout() {
	s.UserID = nil
	s.ResetFlow()
}

// ResetFlow clears navigation and analysis state but keeps the identity.
func (s *Session) ResetFlow() {
	s.Reset = nil
	s.SettingsOpen = false
	s.Analysis = nil
	s.Rewritten = ""
	s.ConfirmClearHistory = false
}
