package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	want := []string{"gemini-2.0-flash", "gemini-2.0-flash-lite", "gemini-2.5-flash"}
	if strings.Join(cfg.GeminiChatModels, ",") != strings.Join(want, ",") {
		t.Errorf("GeminiChatModels = %v", cfg.GeminiChatModels)
	}
	if cfg.AITimeout != 12*time.Second {
		t.Errorf("AITimeout = %v", cfg.AITimeout)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL should default to empty, got %q", cfg.DatabaseURL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GEMINI_CHAT_MODELS", " gemini-2.5-flash , ,gemini-2.0-flash ")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173,https://app.example.com")
	t.Setenv("AI_TIMEOUT", "3s")
	t.Setenv("CLINIC_CHAT_ID", "-100123")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if len(cfg.GeminiChatModels) != 2 || cfg.GeminiChatModels[0] != "gemini-2.5-flash" {
		t.Errorf("GeminiChatModels = %v", cfg.GeminiChatModels)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.AITimeout != 3*time.Second {
		t.Errorf("AITimeout = %v", cfg.AITimeout)
	}
	if cfg.ClinicChatID != -100123 {
		t.Errorf("ClinicChatID = %d", cfg.ClinicChatID)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"no models", func(c *Config) { c.GeminiChatModels = nil }, "GEMINI_CHAT_MODELS"},
		{"production without secret", func(c *Config) { c.Env = "production" }, "AUTH_JWT_SECRET"},
		{"telegram without chat", func(c *Config) { c.TelegramBotToken = "t" }, "CLINIC_CHAT_ID"},
		{"zero timeout", func(c *Config) { c.AITimeout = 0 }, "AI_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Port:             "8080",
				Env:              "development",
				GeminiChatModels: []string{"gemini-2.0-flash"},
				AITimeout:        time.Second,
				AIRateLimitRPS:   1,
				AIRateLimitBurst: 1,
			}
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
