package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/resume-bot-be/internal/api"
	"github.com/isdelr/resume-bot-be/internal/auth"
	"github.com/isdelr/resume-bot-be/internal/config"
	"github.com/isdelr/resume-bot-be/internal/database"
	"github.com/isdelr/resume-bot-be/internal/export"
	"github.com/isdelr/resume-bot-be/internal/feedback"
	"github.com/isdelr/resume-bot-be/internal/logger"
	"github.com/isdelr/resume-bot-be/internal/monitoring"
	"github.com/isdelr/resume-bot-be/internal/services"
	"github.com/isdelr/resume-bot-be/internal/session"
	"github.com/isdelr/resume-bot-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	ctx := context.Background()

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Session store: Redis when configured, in-process otherwise
	var store session.Store
	if cfg.RedisAddr != "" {
		client, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
		}
		defer client.Close()
		store = session.NewRedisStore(client)
		log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis session store")
	} else {
		store = session.NewMemoryStore()
	}
	sessions := session.NewManager(store, auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL), cfg.IsProduction())

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Adapters
	mailer := export.NewSMTPMailer(export.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Insecure: cfg.SMTP.Insecure,
		Timeout:  cfg.AdapterTimeout,
	})
	if !mailer.Configured() {
		log.Warn().Bool("in_app_fallback", cfg.MailInAppFallback).Msg("SMTP credentials not set, email delivery disabled")
	}
	speech := export.NewHTTPSynthesizer(cfg.TTSBaseURL, cfg.AdapterTimeout)

	// Set up services
	userService := services.NewUserService(db)
	if err := userService.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed admin account")
	}
	feedbackService := services.NewFeedbackService(db)
	resetService := services.NewResetService(userService, mailer, cfg.ResetCodeTTL, cfg.MailInAppFallback)
	analysisService := services.NewAnalysisService(services.AnalysisDeps{
		History:  feedbackService,
		Analyzer: feedback.NewGenerator(),
		Mailer:   mailer,
		Speech:   speech,
		Notifier: hub,
		TTSLang:  cfg.TTSLang,
		Fallback: cfg.MailInAppFallback,
	})

	// Set up and run the background stat sampler
	statSampler := monitoring.NewStatSampler(15 * time.Second)
	go statSampler.Run()
	adminService := services.NewAdminService(userService, feedbackService, statSampler)

	// Set up and run the background scheduler
	scheduler := monitoring.NewScheduler(userService, store, cfg.SessionTTL)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	// Set up router
	router := api.NewRouter(api.Deps{
		Sessions:       sessions,
		Hub:            hub,
		Users:          userService,
		History:        feedbackService,
		Reset:          resetService,
		Analysis:       analysisService,
		Admin:          adminService,
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.Environment).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	statSampler.Stop()
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
}
