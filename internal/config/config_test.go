package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"DATABASE_URL", "SSL_CERT_PATH", "PORT", "JWT_SECRET", "CORS_ORIGINS", "LOG_LEVEL",
	"LLM_PROVIDER", "GEMINI_API_KEY", "GEN_MODEL", "OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
	"CLASSIFY_TIMEOUT", "CHAT_TIMEOUT", "HISTORY_WINDOW", "CLASSIFY_WINDOW",
	"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_WHATSAPP_NUMBER",
	"NOTIFY_BATCH_SIZE", "NOTIFY_MAX_ATTEMPTS", "NOTIFY_CONCURRENCY", "NOTIFY_CLAIM_TTL", "NOTIFY_INTERVAL",
	"JOURNAL_KEY",
}

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		// Setenv registers the restore; Unsetenv makes the key absent for the test.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("DATABASE_URL", "sqlite://mindease.db")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.LLMProvider != ProviderGemini {
		t.Errorf("LLMProvider = %s, want gemini", cfg.LLMProvider)
	}
	if cfg.GenModel != "gemini-1.5-flash" {
		t.Errorf("GenModel = %s, want gemini-1.5-flash", cfg.GenModel)
	}
	if cfg.ClassifyTimeout != 10*time.Second {
		t.Errorf("ClassifyTimeout = %v, want 10s", cfg.ClassifyTimeout)
	}
	if cfg.ChatTimeout != 30*time.Second {
		t.Errorf("ChatTimeout = %v, want 30s", cfg.ChatTimeout)
	}
	if cfg.HistoryWindow != 20 || cfg.ClassifyWindow != 10 {
		t.Errorf("windows = %d/%d, want 20/10", cfg.HistoryWindow, cfg.ClassifyWindow)
	}
	if cfg.NotifyBatchSize != 50 {
		t.Errorf("NotifyBatchSize = %d, want 50", cfg.NotifyBatchSize)
	}
	if cfg.NotifyInterval != 0 {
		t.Errorf("NotifyInterval = %v, want 0", cfg.NotifyInterval)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.TwilioEnabled() {
		t.Error("TwilioEnabled() = true with no credentials")
	}
}

func TestLoadConfig_CustomValues(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "https://gateway.example/v1")
	t.Setenv("CLASSIFY_TIMEOUT", "3s")
	t.Setenv("NOTIFY_INTERVAL", "2m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "token")
	t.Setenv("TWILIO_WHATSAPP_NUMBER", "+15550000000")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.LLMProvider != ProviderOpenAI {
		t.Errorf("LLMProvider = %s, want openai", cfg.LLMProvider)
	}
	if cfg.OpenAIBaseURL != "https://gateway.example/v1" {
		t.Errorf("OpenAIBaseURL = %s", cfg.OpenAIBaseURL)
	}
	if cfg.ClassifyTimeout != 3*time.Second {
		t.Errorf("ClassifyTimeout = %v, want 3s", cfg.ClassifyTimeout)
	}
	if cfg.NotifyInterval != 2*time.Minute {
		t.Errorf("NotifyInterval = %v, want 2m", cfg.NotifyInterval)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if !cfg.TwilioEnabled() {
		t.Error("TwilioEnabled() = false with full credentials")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DatabaseURL:       "sqlite://x.db",
			JWTSecret:         "s",
			LLMProvider:       ProviderGemini,
			AIAPIKey:          "k",
			HistoryWindow:     20,
			ClassifyWindow:    10,
			NotifyBatchSize:   50,
			NotifyConcurrency: 4,
			NotifyMaxAttempts: 5,
			ClassifyTimeout:   time.Second,
			ChatTimeout:       time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing database", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"unknown provider", func(c *Config) { c.LLMProvider = "llama" }, "LLM_PROVIDER"},
		{"openai without key", func(c *Config) { c.LLMProvider = ProviderOpenAI }, "OPENAI_API_KEY"},
		{"partial twilio", func(c *Config) { c.TwilioAccountSID = "AC1" }, "TWILIO"},
		{"zero batch", func(c *Config) { c.NotifyBatchSize = 0 }, "NOTIFY_BATCH_SIZE"},
		{"negative window", func(c *Config) { c.HistoryWindow = -1 }, "HISTORY_WINDOW"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "unknown log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{" debug ", slog.LevelDebug, false},
		{"trace", LevelTrace, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_TraceName(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "trace")
	logger.Log(context.Background(), LevelTrace, "wire")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("trace level not renamed: %q", buf.String())
	}
}
