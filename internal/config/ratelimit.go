package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

type RateLimitConfig struct {
	Enabled bool
	MaxHits int
	Window  time.Duration
}

func GetRateLimitConfig(key string) RateLimitConfig {
	enabled := parseEnvBool("RATELIMIT_ENABLED", false)

	configs := map[string]RateLimitConfig{
		"proxy": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_PROXY", 120), // per minute per client
			Window:  time.Minute,
		},
		"chat_submit": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_CHAT_SUBMIT", 30),
			Window:  time.Minute,
		},
		"chat_upload": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_CHAT_UPLOAD", 20),
			Window:  time.Minute,
		},
	}

	if config, exists := configs[key]; exists {
		return config
	}

	log.Warn().Str("key", key).Msg("No rate limit config found")
	return RateLimitConfig{Enabled: false}
}
