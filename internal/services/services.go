package services

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/translatex/relay/internal/config"
	"github.com/translatex/relay/internal/connections"
	"github.com/translatex/relay/internal/infrastructure/redis"
	"github.com/translatex/relay/internal/services/chat"
	"github.com/translatex/relay/internal/services/chat/models"
	"github.com/translatex/relay/internal/services/downloads"
	"github.com/translatex/relay/internal/services/relay"
	"github.com/translatex/relay/internal/services/session"
	"github.com/translatex/relay/internal/services/translator"
)

var (
	// Mutex for thread-safe initialization
	servicesMu sync.RWMutex
)

// Options carries the settings InitializeServices needs. Zero values fall back
// to the config getters.
type Options struct {
	UpstreamURL     string
	UpstreamToken   string
	UpstreamTimeout time.Duration
	TargetLanguage  string
	SessionLifetime time.Duration
	DownloadTTL     time.Duration
	Redis           *redis.Service
	Timeouts        connections.TimeoutConfig
}

// OptionsFromConfig reads every setting from the environment and config file
func OptionsFromConfig() Options {
	return Options{
		UpstreamURL:     config.GetUpstreamBaseURL(),
		UpstreamToken:   config.GetUpstreamToken(),
		UpstreamTimeout: config.GetUpstreamTimeout(),
		TargetLanguage:  config.GetDefaultTargetLanguage(),
		SessionLifetime: config.GetSessionLifetime(),
		DownloadTTL:     config.GetDownloadTTL(),
		Redis:           redis.NewService(config.GetRedisURL(), config.GetRedisPassword()),
		Timeouts:        connections.DefaultTimeouts,
	}
}

type Services struct {
	redisService      *redis.Service
	relayService      *relay.Service
	downloadService   *downloads.Service
	sessionService    *session.Service
	registry          *chat.Registry
	connections       *connections.Manager
}

// InitializeServices wires the relay, the conversation registry and their supporting services
func InitializeServices(opts Options) *Services {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	log.Info().Msg("Initializing core services")

	if opts.Timeouts == (connections.TimeoutConfig{}) {
		opts.Timeouts = connections.DefaultTimeouts
	}

	relayService := relay.NewService(opts.UpstreamURL, opts.UpstreamToken, opts.UpstreamTimeout)
	if relayService.BaseURL() == "" {
		log.Warn().Msg("API_URL is not set; proxy requests will fail until it is configured")
	} else {
		log.Info().Str("upstream", relayService.BaseURL()).Msg("Initializing relay service")
	}

	translatorService := translator.NewService(relayService)

	downloadService := downloads.NewService(opts.Redis, opts.DownloadTTL)
	log.Info().Msg("Initializing download service")

	sessionService := session.NewService(opts.Redis, opts.SessionLifetime)
	log.Info().Msg("Initializing session service")

	registry := chat.NewRegistry(translatorService, downloadService, opts.TargetLanguage)
	manager := connections.NewManager(opts.Timeouts)

	s := &Services{
		redisService:      opts.Redis,
		relayService:      relayService,
		downloadService:   downloadService,
		sessionService:    sessionService,
		registry:          registry,
		connections:       manager,
	}
	registry.OnChange(s.pushSnapshot)

	log.Info().Msg("All services initialized successfully")
	return s
}

// pushSnapshot forwards a conversation change to the session's open websockets
func (s *Services) pushSnapshot(sessionID string, snapshot models.Snapshot) {
	if s.connections.SessionConnectionCount(sessionID) == 0 {
		return
	}
	delivered := s.connections.Broadcast(sessionID, snapshot.Version, chat.NewView(snapshot))
	log.Trace().
		Str("session_id", sessionID).
		Uint64("version", snapshot.Version).
		Int("delivered", delivered).
		Msg("Pushed conversation snapshot")
}

// Sweep drops idle conversations and expired downloads
func (s *Services) Sweep(maxIdle time.Duration) {
	s.registry.Sweep(maxIdle)
	if n := s.downloadService.Sweep(); n > 0 {
		log.Debug().Int("removed", n).Msg("Swept expired downloads")
	}
}

// Shutdown waits for in-flight translations and closes Redis
func (s *Services) Shutdown() {
	s.registry.Wait()
	if s.redisService != nil {
		if err := s.redisService.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
}

func (s *Services) GetRelayService() *relay.Service {
	return s.relayService
}

func (s *Services) GetDownloadService() *downloads.Service {
	return s.downloadService
}

// GetSessionService returns the session service
func (s *Services) GetSessionService() *session.Service {
	return s.sessionService
}

// GetRegistry returns the per-session conversation registry
func (s *Services) GetRegistry() *chat.Registry {
	return s.registry
}

func (s *Services) GetConnections() *connections.Manager {
	return s.connections
}
