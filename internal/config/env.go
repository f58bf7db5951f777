package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LLM providers accepted in LLM_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	DatabaseURL string
	SslCertPath string
	Port        string
	JWTSecret   string
	CORSOrigins []string
	LogLevel    string

	LLMProvider   string
	AIAPIKey      string
	GenModel      string
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	ClassifyTimeout time.Duration
	ChatTimeout     time.Duration
	HistoryWindow   int
	ClassifyWindow  int

	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string

	NotifyBatchSize   int
	NotifyMaxAttempts int
	NotifyConcurrency int
	NotifyClaimTTL    time.Duration
	NotifyInterval    time.Duration

	JournalKey string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() (*Config, error) {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SslCertPath: getEnv("SSL_CERT_PATH", ""),
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		LLMProvider:   strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		AIAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GenModel:      getEnv("GEN_MODEL", "gemini-1.5-flash"),
		OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		ClassifyTimeout: getEnvDuration("CLASSIFY_TIMEOUT", 10*time.Second),
		ChatTimeout:     getEnvDuration("CHAT_TIMEOUT", 30*time.Second),
		HistoryWindow:   getEnvInt("HISTORY_WINDOW", 20),
		ClassifyWindow:  getEnvInt("CLASSIFY_WINDOW", 10),

		TwilioAccountSID:     getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:      getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsAppNumber: getEnv("TWILIO_WHATSAPP_NUMBER", ""),

		NotifyBatchSize:   getEnvInt("NOTIFY_BATCH_SIZE", 50),
		NotifyMaxAttempts: getEnvInt("NOTIFY_MAX_ATTEMPTS", 5),
		NotifyConcurrency: getEnvInt("NOTIFY_CONCURRENCY", 4),
		NotifyClaimTTL:    getEnvDuration("NOTIFY_CLAIM_TTL", 5*time.Minute),
		NotifyInterval:    getEnvDuration("NOTIFY_INTERVAL", 0),

		JournalKey: getEnv("JOURNAL_KEY", ""),
	}

	return cfg, cfg.Validate()
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET not set"))
	}

	switch c.LLMProvider {
	case ProviderGemini:
		if c.AIAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY not set for gemini provider"))
		}
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY not set for openai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, c.LLMProvider))
	}

	set := 0
	for _, v := range []string{c.TwilioAccountSID, c.TwilioAuthToken, c.TwilioWhatsAppNumber} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_WHATSAPP_NUMBER must be set together"))
	}

	if c.HistoryWindow <= 0 || c.ClassifyWindow <= 0 {
		errs = append(errs, fmt.Errorf("HISTORY_WINDOW and CLASSIFY_WINDOW must be positive, got %d and %d", c.HistoryWindow, c.ClassifyWindow))
	}
	if c.NotifyBatchSize <= 0 || c.NotifyConcurrency <= 0 || c.NotifyMaxAttempts <= 0 {
		errs = append(errs, errors.New("NOTIFY_BATCH_SIZE, NOTIFY_CONCURRENCY and NOTIFY_MAX_ATTEMPTS must be positive"))
	}
	if c.ClassifyTimeout <= 0 || c.ChatTimeout <= 0 {
		errs = append(errs, errors.New("CLASSIFY_TIMEOUT and CHAT_TIMEOUT must be positive"))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// TwilioEnabled reports whether WhatsApp delivery is configured.
func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioWhatsAppNumber != ""
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := getEnv(key, ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
