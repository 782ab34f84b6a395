package config

import (
	"sync"
	"time"
)

var (
	sessionMu sync.RWMutex

	// overrides set by tests; nil or empty means read the configuration
	jwtSecretOverride         []byte
	sessionCookieNameOverride string
)

// GetJWTSecret returns the session signing secret. Set JWT_SECRET in production.
func GetJWTSecret() []byte {
	sessionMu.RLock()
	defer sessionMu.RUnlock()
	if jwtSecretOverride != nil {
		return jwtSecretOverride
	}
	return []byte(GetEnvOrDefault("JWT_SECRET", "translatex-development-secret"))
}

// SetJWTSecret changes the signing secret and returns a function restoring the previous one.
// Used by tests.
func SetJWTSecret(secret []byte) func() {
	sessionMu.Lock()
	previous := jwtSecretOverride
	jwtSecretOverride = secret
	sessionMu.Unlock()

	return func() {
		sessionMu.Lock()
		jwtSecretOverride = previous
		sessionMu.Unlock()
	}
}

// GetSessionCookieName returns the configured session cookie name
func GetSessionCookieName() string {
	sessionMu.RLock()
	defer sessionMu.RUnlock()
	if sessionCookieNameOverride != "" {
		return sessionCookieNameOverride
	}
	return GetEnvOrDefault("SESSION_COOKIE_NAME", "translatex_session")
}

// SetSessionCookieName changes the session cookie name and returns a function restoring it.
// Used by tests.
func SetSessionCookieName(name string) func() {
	sessionMu.Lock()
	previous := sessionCookieNameOverride
	sessionCookieNameOverride = name
	sessionMu.Unlock()

	return func() {
		sessionMu.Lock()
		sessionCookieNameOverride = previous
		sessionMu.Unlock()
	}
}

// GetSessionCookieSecure reports whether the session cookie carries the Secure flag
func GetSessionCookieSecure() bool {
	return parseEnvBool("SESSION_COOKIE_SECURE", true)
}

func GetSessionLifetime() time.Duration {
	return parseEnvDuration("SESSION_LIFETIME", time.Hour)
}
