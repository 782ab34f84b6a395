package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var (
	fileMu      sync.RWMutex
	fileOverlay map[string]string
)

// LoadFile reads a flat YAML mapping of configuration keys to values. Keys are matched
// case-insensitively against the environment variable names, so `api_url: ...` and
// `API_URL: ...` are equivalent. Environment variables always win over the file.
func LoadFile(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	overlay := make(map[string]string, len(raw))
	for key, value := range raw {
		if value == nil {
			continue
		}
		overlay[strings.ToUpper(key)] = fmt.Sprint(value)
	}

	fileMu.Lock()
	fileOverlay = overlay
	fileMu.Unlock()

	log.Info().Str("path", path).Int("keys", len(overlay)).Msg("Loaded configuration file")
	return nil
}

// ResetFile clears any loaded file overlay
func ResetFile() {
	fileMu.Lock()
	fileOverlay = nil
	fileMu.Unlock()
}

func fileValue(key string) (string, bool) {
	fileMu.RLock()
	defer fileMu.RUnlock()

	if fileOverlay == nil {
		return "", false
	}
	value, ok := fileOverlay[strings.ToUpper(key)]
	return value, ok
}

func GetConfigFilePath() string {
	return os.Getenv("CONFIG_FILE")
}
