package config

import (
	"log"
	"time"

	"github.com/bwise1/civic_reports/util"
	"github.com/caarlos0/env/v11"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               int           `env:"PORT" envDefault:"8080"`
	Environment        string        `env:"ENVIRONMENT" envDefault:"development"`
	BackendBaseURL     string        `env:"BACKEND_BASE_URL" envDefault:"http://localhost/backend/"`
	BackendReportsPath string        `env:"BACKEND_REPORTS_PATH" envDefault:"get_reports.php"`
	BackendTimeout     time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`
	SessionSecret      string        `env:"SESSION_SECRET"`
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	SessionCookie      string        `env:"SESSION_COOKIE" envDefault:"civic_session"`
	SentryDSN          string        `env:"SENTRY_DSN"`
	AllowedOrigins     []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
}

func New() *Config {
	if loadErr := godotenv.Load(".env"); loadErr != nil {
		log.Printf("[Env]: unable to load .env file %v", loadErr)
	}

	var cfg Config

	if parseErr := env.Parse(&cfg); parseErr != nil {
		log.Printf("[Env]: failed to parse environment variables: %v", parseErr)
	}

	if !util.IsURL(cfg.BackendBaseURL) {
		log.Printf("[Env]: BACKEND_BASE_URL %q is not an absolute URL", cfg.BackendBaseURL)
	}

	if cfg.SessionSecret == "" {
		log.Println("[Env]: SESSION_SECRET is empty, session cookies are signed with an insecure default")
		cfg.SessionSecret = "insecure-development-secret"
	}

	return &cfg
}
