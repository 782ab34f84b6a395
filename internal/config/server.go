package config

import "time"

func GetPort() string {
	return GetEnvOrDefault("PORT", "8080")
}

func GetLogLevel() string {
	return GetEnvOrDefault("LOG_LEVEL", "INFO")
}

func GetLogFormat() string {
	return GetEnvOrDefault("LOG_FORMAT", "json")
}

// GetDefaultTargetLanguage is the target language a new conversation starts with
func GetDefaultTargetLanguage() string {
	return GetEnvOrDefault("DEFAULT_TARGET_LANGUAGE", "fr")
}

// GetMaxUploadBytes bounds multipart uploads accepted by the chat and proxy endpoints
func GetMaxUploadBytes() int64 {
	return parseEnvInt64("MAX_UPLOAD_BYTES", 50<<20)
}

// GetDownloadTTL is how long a translated document stays downloadable
func GetDownloadTTL() time.Duration {
	return parseEnvDuration("DOWNLOAD_TTL", time.Hour)
}

// GetConversationIdleTTL is how long an idle conversation is kept before it is swept
func GetConversationIdleTTL() time.Duration {
	return parseEnvDuration("CONVERSATION_IDLE_TTL", time.Hour)
}
