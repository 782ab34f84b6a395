package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/translatex/relay/internal/services/chat"
	"github.com/translatex/relay/internal/services/session"
	"github.com/translatex/relay/pkg/httpext"
)

type contextKey string

const (
	sessionIDKey    contextKey = "sessionID"
	conversationKey contextKey = "conversation"
)

// RequireSession attaches the caller's conversation to the request context. A
// request without a valid session cookie starts a new session.
func RequireSession(sessions *session.Service, registry *chat.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := sessions.ValidateSession(r)
			if err != nil {
				log.Debug().Err(err).Msg("Discarding invalid session cookie")
				claims = nil
			}

			if claims == nil {
				claims, err = sessions.CreateSession(r.Context(), w)
				if err != nil {
					log.Error().Err(err).Msg("Failed to create session")
					httpext.JsonError(w, "Failed to create session", http.StatusInternalServerError)
					return
				}
			}

			conv := registry.Get(claims.SessionID)

			ctx := context.WithValue(r.Context(), sessionIDKey, claims.SessionID)
			ctx = context.WithValue(ctx, conversationKey, conv)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext returns the session id set by RequireSession, if any
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// ConversationFromContext returns the conversation set by RequireSession
func ConversationFromContext(ctx context.Context) (*chat.Conversation, bool) {
	conv, ok := ctx.Value(conversationKey).(*chat.Conversation)
	return conv, ok && conv != nil
}
