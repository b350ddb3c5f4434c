// Package navigation derives which screen a client should see from its
// session.
package navigation

import "github.com/isdelr/resume-bot-be/internal/models"

// Kind names a top-level screen.
type Kind string

const (
	KindForgotPassword Kind = "forgot_password"
	KindLogin          Kind = "login"
	KindSettings       Kind = "settings"
	KindDashboard      Kind = "dashboard"
)

// Tab is a dashboard tab.
type Tab string

const (
	TabUpload    Tab = "upload"
	TabAnalytics Tab = "analytics"
	TabHistory   Tab = "history"
	TabAdmin     Tab = "admin"
)

// Screen is the resolved view. Only the fields relevant to Kind are set.
type Screen struct {
	Kind Kind `json:"kind"`

	// forgot_password
	ResetStep models.ResetStep `json:"resetStep,omitempty"`

	// settings and dashboard
	User *models.User `json:"user,omitempty"`

	// dashboard
	Tabs                []Tab `json:"tabs,omitempty"`
	HasAnalysis         bool  `json:"hasAnalysis,omitempty"`
	HasRewrite          bool  `json:"hasRewrite,omitempty"`
	ConfirmClearHistory bool  `json:"confirmClearHistory,omitempty"`
}

// Resolve picks the screen for sess. user is the session's account, or nil
// when it is anonymous or the account no longer exists. An active password
// reset wins over everything else.
func Resolve(sess *models.Session, user *models.User) Screen {
	if sess.Reset != nil {
		return Screen{Kind: KindForgotPassword, ResetStep: sess.Reset.Step}
	}
	if !sess.Authenticated() || user == nil {
		return Screen{Kind: KindLogin}
	}

	u := user.Sanitized()
	if sess.SettingsOpen {
		return Screen{Kind: KindSettings, User: &u}
	}

	tabs := []Tab{TabUpload, TabAnalytics, TabHistory}
	if u.IsAdmin {
		tabs = append(tabs, TabAdmin)
	}
	return Screen{
		Kind:                KindDashboard,
		User:                &u,
		Tabs:                tabs,
		HasAnalysis:         sess.Analysis != nil,
		HasRewrite:          sess.Rewritten != "",
		ConfirmClearHistory: sess.ConfirmClearHistory,
	}
}
