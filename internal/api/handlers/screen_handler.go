package handlers

import (
	"net/http"

	"github.com/isdelr/resume-bot-be/internal/navigation"
	"github.com/isdelr/resume-bot-be/internal/session"
)

// ScreenHandler reports which screen the client should render.
type ScreenHandler struct {
	auth *Authenticator
}

// NewScreenHandler creates a new ScreenHandler.
func NewScreenHandler(auth *Authenticator) *ScreenHandler {
	return &ScreenHandler{auth: auth}
}

func (h *ScreenHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	user, err := h.auth.CurrentUser(r.Context(), sess)
	if err != nil {
		writeError(w, r, err, "resolve screen")
		return
	}
	writeJSON(w, http.StatusOK, navigation.Resolve(sess, user))
}
