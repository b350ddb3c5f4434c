package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	Environment  string
	LogLevel     string
	DatabasePath string
	MaxUploadMB  int
	CORSOrigins  []string

	JWTSecret    string
	SessionTTL   time.Duration
	ResetCodeTTL time.Duration

	SMTP SMTPConfig

	// MailInAppFallback lets the workflow show mail content in the UI when
	// delivery is unavailable.
	MailInAppFallback bool

	TTSBaseURL     string
	TTSLang        string
	AdapterTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// SMTPConfig describes the outgoing mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Insecure skips STARTTLS, for local relays such as a dev mail catcher.
	Insecure bool
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	smtpPort, err := getEnvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	maxUpload, err := getEnvInt("MAX_UPLOAD_MB", 10)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getEnvDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	resetTTL, err := getEnvDuration("RESET_CODE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	adapterTimeout, err := getEnvDuration("ADAPTER_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	fallback, err := getEnvBool("MAIL_INAPP_FALLBACK", true)
	if err != nil {
		return nil, err
	}
	smtpInsecure, err := getEnvBool("SMTP_INSECURE", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:   port,
		Environment:  getEnv("APP_ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("DATABASE_PATH", "./resume_bot.db"),
		MaxUploadMB:  maxUpload,
		CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		SessionTTL:   sessionTTL,
		ResetCodeTTL: resetTTL,
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     smtpPort,
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
			Insecure: smtpInsecure,
		},
		MailInAppFallback: fallback,
		TTSBaseURL:        getEnv("TTS_BASE_URL", "https://translate.google.com/translate_tts"),
		TTSLang:           getEnv("TTS_LANG", "en"),
		AdapterTimeout:    adapterTimeout,
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           redisDB,
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:        getEnv("ADMIN_EMAIL", "admin@resumebot.com"),
		AdminPassword:     getEnv("ADMIN_PASSWORD", "admin123"),
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "dev-insecure-secret"
	}
	return cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
