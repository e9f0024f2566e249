package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Credential header variants observed across upstream deployments. The
// header is upstream contract, not gateway logic, so it stays configuration.
const (
	AuthSchemeAPIKey = "x-api-key"
	AuthSchemeBearer = "bearer"
)

// Request-body key variants for the outbound question.
const (
	QuestionKeyQuestion = "question"
	QuestionKeyMessage  = "message"
)

// Config holds all service settings, populated once at startup from
// environment variables and never re-read.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream forecast service configuration.
	UpstreamURL         string
	UpstreamToken       string
	UpstreamTimeout     time.Duration
	UpstreamAuthScheme  string
	UpstreamQuestionKey string

	// Optional forecast audit stream.
	AuditBrokers []string
	AuditTopic   string
	AuditEnabled bool
}

// Load reads configuration from the environment, applying defaults where
// unset. A missing upstream token is a hard error: the process must fail
// at startup rather than discover the problem on the first request.
func Load() (*Config, error) {
	// Overlay a local .env if present; real environment variables win.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := parseDuration("UPSTREAM_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	token := os.Getenv("WILDEBEAST_RENDER_TOKEN")
	if token == "" {
		return nil, errors.New("WILDEBEAST_RENDER_TOKEN is required")
	}

	auditBrokers := parseBrokers(os.Getenv("AUDIT_KAFKA_BROKERS"))
	auditEnabled := len(auditBrokers) > 0
	if v := os.Getenv("AUDIT_ENABLED"); v != "" {
		auditEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		UpstreamURL:         envOrDefault("UPSTREAM_URL", "https://wildebeast.onrender.com/api/forecast"),
		UpstreamToken:       token,
		UpstreamTimeout:     upstreamTimeout,
		UpstreamAuthScheme:  envOrDefault("UPSTREAM_AUTH_SCHEME", AuthSchemeAPIKey),
		UpstreamQuestionKey: envOrDefault("UPSTREAM_QUESTION_KEY", QuestionKeyQuestion),

		AuditBrokers: auditBrokers,
		AuditTopic:   envOrDefault("AUDIT_KAFKA_TOPIC", "forecast-audit"),
		AuditEnabled: auditEnabled,
	}

	switch cfg.UpstreamAuthScheme {
	case AuthSchemeAPIKey, AuthSchemeBearer:
	default:
		return nil, fmt.Errorf("invalid UPSTREAM_AUTH_SCHEME %q: must be %q or %q",
			cfg.UpstreamAuthScheme, AuthSchemeAPIKey, AuthSchemeBearer)
	}

	switch cfg.UpstreamQuestionKey {
	case QuestionKeyQuestion, QuestionKeyMessage:
	default:
		return nil, fmt.Errorf("invalid UPSTREAM_QUESTION_KEY %q: must be %q or %q",
			cfg.UpstreamQuestionKey, QuestionKeyQuestion, QuestionKeyMessage)
	}

	if cfg.AuditEnabled && len(cfg.AuditBrokers) == 0 {
		return nil, errors.New("AUDIT_ENABLED is true but AUDIT_KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
