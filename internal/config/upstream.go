package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// NormalizeBaseURL prefixes https:// when the value has no scheme and strips one trailing slash
func NormalizeBaseURL(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if !strings.HasPrefix(value, "http") {
		value = "https://" + value
	}
	return strings.TrimSuffix(value, "/")
}

// GetUpstreamBaseURL returns the translation backend base URL, normalised
func GetUpstreamBaseURL() string {
	value := GetEnvOrDefault("API_URL", "")
	if value == "" {
		log.Warn().Msg("API_URL not set - translation backend unavailable")
		return ""
	}
	return NormalizeBaseURL(value)
}

// GetUpstreamToken returns the bearer credential attached to every upstream request
func GetUpstreamToken() string {
	value := GetEnvOrDefault("HF_TOKEN", "")
	if value == "" {
		log.Warn().Msg("HF_TOKEN not set - upstream requests will be sent without credentials")
	}
	return value
}

// GetUpstreamTimeout returns the upstream HTTP client timeout. Zero means no timeout.
func GetUpstreamTimeout() time.Duration {
	return parseEnvDuration("UPSTREAM_TIMEOUT", 0)
}
