package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// fileConfig mirrors Config for TOML files. Pointers distinguish "unset" from zero.
type fileConfig struct {
	Port                  *string  `toml:"port"`
	Env                   *string  `toml:"env"`
	AnalyzeEndpoint       *string  `toml:"analyze_endpoint"`
	AnalyzeField          *string  `toml:"analyze_field"`
	SettleDelay           *string  `toml:"settle_delay"`
	BackgroundURL         *string  `toml:"background_url"`
	BackgroundEnabled     *bool    `toml:"background_enabled"`
	SessionTTL            *string  `toml:"session_ttl"`
	MaxUploadBytes        *int64   `toml:"max_upload_bytes"`
	RateLimitRPS          *float64 `toml:"rate_limit_rps"`
	RateLimitBurst        *int     `toml:"rate_limit_burst"`
	PollRateLimitRPS      *float64 `toml:"poll_rate_limit_rps"`
	PollRateLimitBurst    *int     `toml:"poll_rate_limit_burst"`
	SessionRateLimitRPS   *float64 `toml:"session_rate_limit_rps"`
	SessionRateLimitBurst *int     `toml:"session_rate_limit_burst"`
	MaxSessions           *int     `toml:"max_sessions"`
	LocalStoreDir         *string  `toml:"local_store_dir"`
}

func applyFile(cfg *Config, path string) error {
	var fc fileConfig
	meta, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("read config %s: unknown key %q", path, undecoded[0].String())
	}

	setString(&cfg.Port, fc.Port)
	setString(&cfg.Env, fc.Env)
	setString(&cfg.AnalyzeEndpoint, fc.AnalyzeEndpoint)
	setString(&cfg.AnalyzeField, fc.AnalyzeField)
	setString(&cfg.BackgroundURL, fc.BackgroundURL)
	setString(&cfg.LocalStoreDir, fc.LocalStoreDir)
	if fc.BackgroundEnabled != nil {
		cfg.BackgroundEnabled = *fc.BackgroundEnabled
	}
	if fc.MaxUploadBytes != nil {
		cfg.MaxUploadBytes = *fc.MaxUploadBytes
	}
	setFloat(&cfg.RateLimitRPS, fc.RateLimitRPS)
	setFloat(&cfg.PollRateLimitRPS, fc.PollRateLimitRPS)
	setFloat(&cfg.SessionRateLimitRPS, fc.SessionRateLimitRPS)
	setInt(&cfg.RateLimitBurst, fc.RateLimitBurst)
	setInt(&cfg.PollRateLimitBurst, fc.PollRateLimitBurst)
	setInt(&cfg.SessionRateLimitBurst, fc.SessionRateLimitBurst)
	setInt(&cfg.MaxSessions, fc.MaxSessions)
	if fc.SettleDelay != nil {
		d, err := parseDuration(*fc.SettleDelay)
		if err != nil {
			return fmt.Errorf("read config %s: settle_delay: %w", path, err)
		}
		cfg.SettleDelay = d
	}
	if fc.SessionTTL != nil {
		d, err := parseDuration(*fc.SessionTTL)
		if err != nil {
			return fmt.Errorf("read config %s: session_ttl: %w", path, err)
		}
		cfg.SessionTTL = d
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
