package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/resume-bot-be/internal/auth"
	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/isdelr/resume-bot-be/internal/models"
	"github.com/rs/zerolog/log"
)

type contextKey string

const sessionKey contextKey = "session"

// FromContext returns the request's session, or nil outside Middleware.
func FromContext(ctx context.Context) *models.Session {
	sess, _ := ctx.Value(sessionKey).(*models.Session)
	return sess
}

// WithSession attaches sess to ctx.
func WithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// Manager binds sessions to clients through a signed cookie.
type Manager struct {
	store  Store
	tokens *auth.TokenIssuer
	secure bool
	now    func() time.Time
}

// NewManager creates a new Manager. secure marks the cookie Secure.
func NewManager(store Store, tokens *auth.TokenIssuer, secure bool) *Manager {
	return &Manager{store: store, tokens: tokens, secure: secure, now: time.Now}
}

// Store returns the underlying session store.
func (m *Manager) Store() Store {
	return m.store
}

// Middleware loads the caller's session, creating an anonymous one on first
// contact, and saves it once the handler returns.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.load(r)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load session")
			http.Error(w, "Session unavailable", http.StatusInternalServerError)
			return
		}
		if sess == nil {
			sess = m.newSession()
			if err := m.setCookie(w, sess.ID); err != nil {
				log.Error().Err(err).Msg("Failed to issue session token")
				http.Error(w, "Session unavailable", http.StatusInternalServerError)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))

		sess.LastSeen = m.now().UTC()
		if err := m.store.Save(context.WithoutCancel(r.Context()), sess, m.tokens.TTL()); err != nil {
			log.Error().Err(err).Str("session_id", sess.ID).Msg("Failed to save session")
		}
	})
}

// Rotate moves sess to a fresh ID and reissues the cookie. It is called on
// login, logout and a completed password reset so a session ID never spans
// two identities.
func (m *Manager) Rotate(ctx context.Context, w http.ResponseWriter, sess *models.Session) error {
	if err := m.store.Delete(ctx, sess.ID); err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("Failed to delete rotated session")
	}
	sess.ID = uuid.NewString()
	return m.setCookie(w, sess.ID)
}

func (m *Manager) load(r *http.Request) (*models.Session, error) {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	claims, err := m.tokens.Validate(cookie.Value)
	if err != nil {
		log.Debug().Err(err).Msg("Ignoring invalid session token")
		return nil, nil
	}
	sess, err := m.store.Get(r.Context(), claims.SessionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

func (m *Manager) newSession() *models.Session {
	now := m.now().UTC()
	return &models.Session{ID: uuid.NewString(), CreatedAt: now, LastSeen: now}
}

func (m *Manager) setCookie(w http.ResponseWriter, sessionID string) error {
	token, err := m.tokens.Generate(sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Expires:  m.now().Add(m.tokens.TTL()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	return nil
}
