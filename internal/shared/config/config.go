package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultAnalyzeEndpoint is where resumes are posted when nothing else is configured.
	DefaultAnalyzeEndpoint = "http://localhost:3000/analyze-resume"
	// DefaultAnalyzeField is the multipart part name holding the resume bytes.
	DefaultAnalyzeField = "resume"
	// DefaultSettleDelay is the pause between a successful response and showing it.
	DefaultSettleDelay = time.Second
	// DefaultBackgroundURL serves a random 1920x1080 image per request.
	DefaultBackgroundURL = "https://picsum.photos/1920/1080"
)

// Config holds application configuration. The SessionRateLimit fields throttle
// new sessions per client IP; LocalStoreDir is where the CLI saves background
// images.
type Config struct {
	Port                  string        `validate:"required"`
	Env                   string        `validate:"oneof=dev local staging production"`
	AnalyzeEndpoint       string        `validate:"required,url"`
	AnalyzeField          string        `validate:"required"`
	SettleDelay           time.Duration `validate:"gte=0"`
	BackgroundURL         string        `validate:"omitempty,url"`
	BackgroundEnabled     bool
	SessionTTL            time.Duration `validate:"gt=0"`
	MaxUploadBytes        int64         `validate:"gt=0"`
	RateLimitRPS          float64       `validate:"gte=0"`
	RateLimitBurst        int           `validate:"gte=0"`
	PollRateLimitRPS      float64       `validate:"gte=0"`
	PollRateLimitBurst    int           `validate:"gte=0"`
	SessionRateLimitRPS   float64       `validate:"gte=0"`
	SessionRateLimitBurst int           `validate:"gte=0"`
	MaxSessions           int           `validate:"gte=0"`
	LocalStoreDir         string
}

// Defaults returns the configuration used when no file or env var overrides a value.
func Defaults() Config {
	return Config{
		Port:                  "8080",
		Env:                   "dev",
		AnalyzeEndpoint:       DefaultAnalyzeEndpoint,
		AnalyzeField:          DefaultAnalyzeField,
		SettleDelay:           DefaultSettleDelay,
		BackgroundURL:         DefaultBackgroundURL,
		BackgroundEnabled:     true,
		SessionTTL:            30 * time.Minute,
		MaxUploadBytes:        10 << 20,
		RateLimitRPS:          1,
		RateLimitBurst:        5,
		PollRateLimitRPS:      2,
		PollRateLimitBurst:    10,
		SessionRateLimitRPS:   0.2,
		SessionRateLimitBurst: 10,
		MaxSessions:           1000,
		LocalStoreDir:         "./data",
	}
}

// Load reads .env files, the TOML file named by RAV_CONFIG, then environment variables.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("RAV_CONFIG"))
}

// LoadFrom is Load with an explicit config file path. An empty path skips the file layer.
func LoadFrom(path string) (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	cfg := Defaults()
	if path = strings.TrimSpace(path); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Env = normalizeEnv(cfg.Env)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if c.BackgroundEnabled && strings.TrimSpace(c.BackgroundURL) == "" {
		return fmt.Errorf("invalid config: BackgroundURL is required when the background is enabled")
	}
	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(parts, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.AnalyzeEndpoint = getEnv("ANALYZE_ENDPOINT", cfg.AnalyzeEndpoint)
	cfg.AnalyzeField = getEnv("ANALYZE_FIELD", cfg.AnalyzeField)
	cfg.BackgroundURL = getEnv("BACKGROUND_URL", cfg.BackgroundURL)
	cfg.LocalStoreDir = getEnv("LOCAL_STORE_DIR", cfg.LocalStoreDir)

	var err error
	if cfg.SettleDelay, err = getDuration("ANALYZE_SETTLE_DELAY", cfg.SettleDelay); err != nil {
		return err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", cfg.SessionTTL); err != nil {
		return err
	}
	if raw := os.Getenv("BACKGROUND_ENABLED"); raw != "" {
		v, perr := strconv.ParseBool(strings.TrimSpace(raw))
		if perr != nil {
			return fmt.Errorf("BACKGROUND_ENABLED: %w", perr)
		}
		cfg.BackgroundEnabled = v
	}
	if raw := os.Getenv("MAX_UPLOAD_BYTES"); raw != "" {
		v, perr := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if perr != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", perr)
		}
		cfg.MaxUploadBytes = v
	}
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"RATE_LIMIT_RPS", &cfg.RateLimitRPS},
		{"POLL_RATE_LIMIT_RPS", &cfg.PollRateLimitRPS},
		{"SESSION_RATE_LIMIT_RPS", &cfg.SessionRateLimitRPS},
	} {
		if raw := os.Getenv(f.key); raw != "" {
			v, perr := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if perr != nil {
				return fmt.Errorf("%s: %w", f.key, perr)
			}
			*f.dst = v
		}
	}
	for _, f := range []struct {
		key string
		dst *int
	}{
		{"RATE_LIMIT_BURST", &cfg.RateLimitBurst},
		{"POLL_RATE_LIMIT_BURST", &cfg.PollRateLimitBurst},
		{"SESSION_RATE_LIMIT_BURST", &cfg.SessionRateLimitBurst},
		{"MAX_SESSIONS", &cfg.MaxSessions},
	} {
		if raw := os.Getenv(f.key); raw != "" {
			v, perr := strconv.Atoi(strings.TrimSpace(raw))
			if perr != nil {
				return fmt.Errorf("%s: %w", f.key, perr)
			}
			*f.dst = v
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := parseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// parseDuration accepts Go duration strings and bare integers as milliseconds.
func parseDuration(raw string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(raw)
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
