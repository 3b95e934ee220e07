package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds the runtime configuration. It is built once in main and passed
// down explicitly.
type Config struct {
	Port    string
	GinMode string
	Env     string

	LogLevel string

	DBDriver    string // postgres, sqlite
	DatabaseURL string
	SQLitePath  string

	SessionName   string
	SessionSecret string

	UploadDir      string
	MaxUploadBytes int64

	WelcomeBonus  int
	AdminEmail    string
	AdminPassword string

	LoginRatePerMinute int

	SMTP SMTPConfig
}

// SMTPConfig is optional; mail is disabled unless every field is set.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Enabled reports whether all SMTP settings are present.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.Port != "" && s.Username != "" && s.Password != "" && s.From != ""
}

// Load reads configuration from the environment. Call godotenv.Load before
// this if a .env file should be honoured.
func Load() *Config {
	databaseURL := os.Getenv("DATABASE_URL")
	defaultDriver := "sqlite"
	if databaseURL != "" {
		defaultDriver = "postgres"
	}

	return &Config{
		Port:     getEnv("PORT", "5001"),
		GinMode:  os.Getenv("GIN_MODE"),
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", defaultDriver)),
		DatabaseURL: databaseURL,
		SQLitePath:  getEnv("SQLITE_PATH", "rewear.db"),

		SessionName:   getEnv("SESSION_NAME", "rewear_session"),
		SessionSecret: getEnv("SESSION_SECRET", "secret_key_change_me"),

		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 16)) << 20,

		WelcomeBonus:  getEnvInt("WELCOME_BONUS", 50),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@rewear.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		LoginRatePerMinute: getEnvInt("LOGIN_RATE_PER_MIN", 20),

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SMTP_FROM"),
		},
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
