package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/resume-bot-be/internal/api/handlers"
	"github.com/isdelr/resume-bot-be/internal/logger"
	"github.com/isdelr/resume-bot-be/internal/services"
	"github.com/isdelr/resume-bot-be/internal/session"
	"github.com/isdelr/resume-bot-be/internal/websocket"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Sessions       *session.Manager
	Hub            *websocket.Hub
	Users          services.UserServiceProvider
	History        services.FeedbackServiceProvider
	Reset          services.ResetServiceProvider
	Analysis       services.AnalysisServiceProvider
	Admin          services.AdminServiceProvider
	CORSOrigins    []string
	MaxUploadBytes int64
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authn := handlers.NewAuthenticator(d.Users)
	screenHandler := handlers.NewScreenHandler(authn)
	authHandler := handlers.NewAuthHandler(d.Users, d.Sessions)
	resetHandler := handlers.NewResetHandler(d.Reset, d.Sessions)
	analysisHandler := handlers.NewAnalysisHandler(d.Analysis, d.MaxUploadBytes)
	historyHandler := handlers.NewHistoryHandler(d.History, d.Hub)
	settingsHandler := handlers.NewSettingsHandler(d.Users, d.Hub)
	adminHandler := handlers.NewAdminHandler(d.Admin)
	wsHandler := handlers.NewWebSocketHandler(d.Hub, d.CORSOrigins)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(d.Sessions.Middleware)

		r.Get("/screen", screenHandler.Get)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)

			r.Route("/reset", func(r chi.Router) {
				r.Post("/begin", resetHandler.Begin)
				r.Post("/email", resetHandler.SubmitEmail)
				r.Post("/verify", resetHandler.Verify)
				r.Post("/resend", resetHandler.Resend)
				r.Post("/password", resetHandler.Password)
				r.Post("/cancel", resetHandler.Cancel)
			})
		})

		// Everything below needs a logged-in user.
		r.Group(func(r chi.Router) {
			r.Use(authn.RequireUser)

			r.Get("/me", authHandler.Me)
			r.Get("/ws", wsHandler.Serve)

			r.Route("/analysis", func(r chi.Router) {
				r.Post("/", analysisHandler.Analyze)
				r.Get("/", analysisHandler.Get)
				r.Delete("/", analysisHandler.Clear)
				r.Post("/rewrite", analysisHandler.Rewrite)
				r.Get("/rewrite.txt", analysisHandler.DownloadText)
				r.Get("/rewrite.pdf", analysisHandler.DownloadPDF)
				r.Get("/audio", analysisHandler.Audio)
				r.Post("/email", analysisHandler.Email)
			})

			r.Get("/history", historyHandler.List)
			r.Get("/history.csv", historyHandler.CSV)
			r.Post("/history/clear", historyHandler.RequestClear)
			r.Post("/history/clear/confirm", historyHandler.ConfirmClear)
			r.Post("/history/clear/cancel", historyHandler.CancelClear)
			r.Get("/analytics", historyHandler.Analytics)

			r.Route("/settings", func(r chi.Router) {
				r.Post("/open", settingsHandler.Open)
				r.Post("/close", settingsHandler.Close)
				r.Put("/profile", settingsHandler.UpdateProfile)
				r.Put("/password", settingsHandler.ChangePassword)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(handlers.RequireAdmin)
				r.Get("/stats", adminHandler.Stats)
				r.Get("/users", adminHandler.Users)
			})
		})
	})

	return r
}
