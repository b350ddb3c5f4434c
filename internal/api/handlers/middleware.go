package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/isdelr/resume-bot-be/internal/models"
	"github.com/isdelr/resume-bot-be/internal/services"
	"github.com/isdelr/resume-bot-be/internal/session"
	"github.com/rs/zerolog/log"
)

type contextKey string

const userKey contextKey = "user"

// UserFromContext returns the user loaded by RequireUser.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}

// Authenticator resolves the session's account for protected routes.
type Authenticator struct {
	users services.UserServiceProvider
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(users services.UserServiceProvider) *Authenticator {
	return &Authenticator{users: users}
}

// CurrentUser loads the account bound to sess. A session whose account no
// longer exists is logged out.
func (a *Authenticator) CurrentUser(ctx context.Context, sess *models.Session) (*models.User, error) {
	if sess == nil || !sess.Authenticated() {
		return nil, nil
	}
	user, err := a.users.GetUserByID(ctx, *sess.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			log.Warn().Int64("user_id", *sess.UserID).Msg("Session user no longer exists, logging out")
			sess.Logout()
			return nil, nil
		}
		return nil, err
	}
	user = user.Sanitized()
	return &user, nil
}

// RequireUser rejects anonymous sessions and stores the user in the context.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.CurrentUser(r.Context(), session.FromContext(r.Context()))
		if err != nil {
			writeError(w, r, err, "load session user")
			return
		}
		if user == nil {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, *user)))
	})
}

// RequireAdmin must run after RequireUser.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || !user.IsAdmin {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
