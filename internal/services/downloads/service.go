package downloads

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/translatex/relay/internal/infrastructure/redis"
)

// PathPrefix is the route translated documents are served from
const PathPrefix = "/api/downloads/"

const keyPrefix = "download:"

// File is a translated document held for download
type File struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"data"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Href is the downloadable reference for the file
func (f *File) Href() string {
	return Href(f.ID)
}

func Href(id string) string {
	return PathPrefix + id
}

type Store interface {
	Set(ctx context.Context, file *File) error
	Get(ctx context.Context, id string) (*File, error)
	Delete(ctx context.Context, id string) error
}

type RedisStore struct {
	redisService *redis.Service
}

type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]*File
	now   func() time.Time
}

type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewService(redisService *redis.Service, ttl time.Duration) *Service {
	var store Store
	if redisService != nil {
		if err := redisService.Ping(context.Background()); err != nil {
			log.Error().Err(err).Msg("Redis unreachable, falling back to in-memory download storage")
			store = NewMemoryStore()
		} else {
			log.Info().Msg("Using Redis for download storage")
			store = &RedisStore{redisService: redisService}
		}
	} else {
		log.Info().Msg("Using in-memory download storage")
		store = NewMemoryStore()
	}

	return NewServiceWithStore(store, ttl)
}

func NewServiceWithStore(store Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{store: store, ttl: ttl, now: time.Now}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files: make(map[string]*File),
		now:   time.Now,
	}
}

// Redis Store implementation
func (rs *RedisStore) Set(ctx context.Context, file *File) error {
	data, err := json.Marshal(file)
	if err != nil {
		return err
	}

	ttl := time.Until(file.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return rs.redisService.Set(ctx, keyPrefix+file.ID, data, ttl)
}

func (rs *RedisStore) Get(ctx context.Context, id string) (*File, error) {
	data, err := rs.redisService.GetBytes(ctx, keyPrefix+id)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func (rs *RedisStore) Delete(ctx context.Context, id string) error {
	return rs.redisService.Delete(ctx, keyPrefix+id)
}

// Memory Store implementation
func (ms *MemoryStore) Set(ctx context.Context, file *File) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.files[file.ID] = file
	return nil
}

func (ms *MemoryStore) Get(ctx context.Context, id string) (*File, error) {
	ms.mu.RLock()
	file, exists := ms.files[id]
	ms.mu.RUnlock()

	if !exists {
		return nil, nil
	}

	if ms.now().After(file.ExpiresAt) {
		if err := ms.Delete(ctx, id); err != nil {
			log.Warn().Err(err).Str("download_id", id).Msg("Failed to delete expired download")
		}
		return nil, nil
	}

	return file, nil
}

func (ms *MemoryStore) Delete(ctx context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.files, id)
	return nil
}

// Sweep removes every expired file and returns how many were dropped
func (ms *MemoryStore) Sweep() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	removed := 0
	for id, file := range ms.files {
		if now.After(file.ExpiresAt) {
			delete(ms.files, id)
			removed++
		}
	}
	return removed
}

func servedContentType(contentType string, data []byte) string {
	declared := strings.ToLower(strings.TrimSpace(contentType))
	if declared != "" && !strings.HasPrefix(declared, "application/octet-stream") {
		return contentType
	}
	if len(data) == 0 {
		return "application/octet-stream"
	}
	return mimetype.Detect(data).String()
}

// Service methods

// Save stores a translated document and returns it with its id and expiry set.
// A missing or generic content type is replaced by one detected from data.
func (s *Service) Save(ctx context.Context, name, contentType string, data []byte) (*File, error) {
	file := &File{
		ID:          uuid.New().String(),
		Name:        name,
		ContentType: servedContentType(contentType, data),
		Data:        data,
		ExpiresAt:   s.now().Add(s.ttl),
	}

	if err := s.store.Set(ctx, file); err != nil {
		return nil, err
	}

	log.Debug().
		Str("download_id", file.ID).
		Str("file_name", name).
		Int("bytes", len(data)).
		Msg("Stored translated document")

	return file, nil
}

// Get returns the file for id, or nil when it does not exist or has expired
func (s *Service) Get(ctx context.Context, id string) (*File, error) {
	return s.store.Get(ctx, id)
}

// Sweep drops expired files when the store keeps them in memory. Redis expires keys itself.
func (s *Service) Sweep() int {
	if ms, ok := s.store.(*MemoryStore); ok {
		return ms.Sweep()
	}
	return 0
}
