package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	LogLevel    string   `mapstructure:"LOG_LEVEL"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	JWTSecret   string   `mapstructure:"AUTH_JWT_SECRET"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	GeminiAPIKey       string        `mapstructure:"GEMINI_API_KEY"`
	GeminiBaseURL      string        `mapstructure:"GEMINI_BASE_URL"`
	GeminiChatModels   []string      `mapstructure:"GEMINI_CHAT_MODELS"`
	GeminiExtractModel string        `mapstructure:"GEMINI_EXTRACT_MODEL"`
	AITimeout          time.Duration `mapstructure:"AI_TIMEOUT"`
	AIRateLimitRPS     float64       `mapstructure:"AI_RATE_LIMIT_RPS"`
	AIRateLimitBurst   int           `mapstructure:"AI_RATE_LIMIT_BURST"`

	STTURL      string `mapstructure:"STT_URL"`
	TTSAPIKey   string `mapstructure:"TTS_API_KEY"`
	PDFFontPath string `mapstructure:"PDF_FONT_PATH"`

	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	ClinicChatID     int64  `mapstructure:"CLINIC_CHAT_ID"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "AUTH_JWT_SECRET", "CORS_ORIGINS",
	"GEMINI_API_KEY", "GEMINI_BASE_URL", "GEMINI_CHAT_MODELS", "GEMINI_EXTRACT_MODEL",
	"AI_TIMEOUT", "AI_RATE_LIMIT_RPS", "AI_RATE_LIMIT_BURST",
	"STT_URL", "TTS_API_KEY", "PDF_FONT_PATH",
	"TELEGRAM_BOT_TOKEN", "CLINIC_CHAT_ID",
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("GEMINI_CHAT_MODELS", "gemini-2.0-flash,gemini-2.0-flash-lite,gemini-2.5-flash")
	v.SetDefault("GEMINI_EXTRACT_MODEL", "gemini-1.5-flash")
	v.SetDefault("AI_TIMEOUT", "12s")
	v.SetDefault("AI_RATE_LIMIT_RPS", 2)
	v.SetDefault("AI_RATE_LIMIT_BURST", 5)
	v.SetDefault("STT_URL", "http://stt:8000/transcribe")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// viper only splits slices that come from defaults or files
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.GeminiChatModels = splitList(v.GetString("GEMINI_CHAT_MODELS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if len(c.GeminiChatModels) == 0 {
		errs = append(errs, errors.New("GEMINI_CHAT_MODELS must list at least one model"))
	}
	if c.AITimeout <= 0 {
		errs = append(errs, errors.New("AI_TIMEOUT must be positive"))
	}
	if c.AIRateLimitRPS <= 0 || c.AIRateLimitBurst <= 0 {
		errs = append(errs, errors.New("AI_RATE_LIMIT_RPS and AI_RATE_LIMIT_BURST must be positive"))
	}
	if c.IsProduction() && c.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required in production"))
	}
	if c.TelegramBotToken != "" && c.ClinicChatID == 0 {
		errs = append(errs, errors.New("CLINIC_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
