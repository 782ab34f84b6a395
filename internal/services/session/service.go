package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/translatex/relay/internal/config"
	"github.com/translatex/relay/internal/infrastructure/redis"
)

const keyPrefix = "session:"

// Claims are carried in the signed session cookie
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

type Store interface {
	Set(ctx context.Context, sessionID string, claims *Claims, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*Claims, error)
	Delete(ctx context.Context, sessionID string) error
}

type RedisStore struct {
	redisService *redis.Service
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Claims
}

type Service struct {
	store    Store
	lifetime time.Duration
}

func NewService(redisService *redis.Service, lifetime time.Duration) *Service {
	var store Store
	if redisService != nil {
		if err := redisService.Ping(context.Background()); err != nil {
			log.Error().Err(err).Msg("Redis unreachable, falling back to in-memory session storage")
			store = NewMemoryStore()
		} else {
			log.Info().Msg("Using Redis for session storage")
			store = &RedisStore{redisService: redisService}
		}
	} else {
		log.Info().Msg("Using in-memory session storage")
		store = NewMemoryStore()
	}

	return NewServiceWithStore(store, lifetime)
}

func NewServiceWithStore(store Store, lifetime time.Duration) *Service {
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	return &Service{store: store, lifetime: lifetime}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Claims),
	}
}

// Redis Store implementation
func (rs *RedisStore) Set(ctx context.Context, sessionID string, claims *Claims, ttl time.Duration) error {
	data, err := json.Marshal(claims)
	if err != nil {
		return err
	}

	return rs.redisService.Set(ctx, keyPrefix+sessionID, string(data), ttl)
}

func (rs *RedisStore) Get(ctx context.Context, sessionID string) (*Claims, error) {
	data, err := rs.redisService.Get(ctx, keyPrefix+sessionID)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var claims Claims
	if err := json.Unmarshal([]byte(data), &claims); err != nil {
		return nil, err
	}

	return &claims, nil
}

func (rs *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return rs.redisService.Delete(ctx, keyPrefix+sessionID)
}

// Memory Store implementation
func (ms *MemoryStore) Set(ctx context.Context, sessionID string, claims *Claims, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sessions[sessionID] = claims
	return nil
}

func (ms *MemoryStore) Get(ctx context.Context, sessionID string) (*Claims, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	claims, exists := ms.sessions[sessionID]
	if !exists {
		return nil, nil
	}
	if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
		return nil, nil
	}
	return claims, nil
}

func (ms *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.sessions, sessionID)
	return nil
}

// CreateSession starts a new session and sets its cookie on the response
func (s *Service) CreateSession(ctx context.Context, w http.ResponseWriter) (*Claims, error) {
	now := time.Now()
	sessionID := uuid.New().String()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        sessionID,
		},
		SessionID: sessionID,
	}

	if err := s.store.Set(ctx, sessionID, claims, s.lifetime); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(config.GetJWTSecret())
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.GetSessionCookieName(),
		Value:    signedToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   config.GetSessionCookieSecure(),
		SameSite: http.SameSiteStrictMode,
		Expires:  now.Add(s.lifetime),
	})

	log.Debug().Str("session_id", sessionID).Msg("Session created")
	return claims, nil
}

// ValidateSession returns the claims of a valid session cookie, or nil when the request
// carries no cookie or an unknown session
func (s *Service) ValidateSession(r *http.Request) (*Claims, error) {
	cookie, err := r.Cookie(config.GetSessionCookieName())
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	claims, err := parseToken(cookie.Value)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Get(r.Context(), claims.SessionID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, nil
	}

	return claims, nil
}

// ClearSession removes the session from storage and expires its cookie. It returns the
// id of the cleared session, if any.
func (s *Service) ClearSession(w http.ResponseWriter, r *http.Request) string {
	var sessionID string
	if cookie, err := r.Cookie(config.GetSessionCookieName()); err == nil {
		if claims, err := parseToken(cookie.Value); err == nil {
			sessionID = claims.SessionID
			_ = s.store.Delete(r.Context(), claims.SessionID)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.GetSessionCookieName(),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   config.GetSessionCookieSecure(),
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(-1 * time.Hour),
		MaxAge:   -1,
	})

	return sessionID
}

func parseToken(value string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(value, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return config.GetJWTSecret(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}
