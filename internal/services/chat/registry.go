package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/translatex/relay/internal/services/chat/models"
)

// ChangeFunc receives a conversation's snapshot after each update
type ChangeFunc func(sessionID string, snapshot models.Snapshot)

// Registry holds one Conversation per session
type Registry struct {
	translator     Translator
	downloads      DownloadStore
	targetLanguage string

	mu            sync.Mutex
	conversations map[string]*Conversation
	draining      []*Conversation
	onChange      ChangeFunc
}

// NewRegistry creates a registry whose conversations default to targetLanguage
func NewRegistry(translator Translator, store DownloadStore, targetLanguage string) *Registry {
	return &Registry{
		translator:     translator,
		downloads:      store,
		targetLanguage: targetLanguage,
		conversations:  make(map[string]*Conversation),
	}
}

// OnChange registers fn to be called after every update of any conversation
func (r *Registry) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

func (r *Registry) notify(sessionID string, snapshot models.Snapshot) {
	r.mu.Lock()
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn(sessionID, snapshot)
	}
}

// Get returns the session's conversation, creating it on first use. A new
// conversation starts loading the supported languages in the background.
func (r *Registry) Get(sessionID string) *Conversation {
	r.mu.Lock()
	if conv, ok := r.conversations[sessionID]; ok {
		r.mu.Unlock()
		return conv
	}

	conv := NewConversation(sessionID, r.translator, r.downloads, Options{
		TargetLanguage: r.targetLanguage,
		OnChange: func(snapshot models.Snapshot) {
			r.notify(sessionID, snapshot)
		},
	})
	r.conversations[sessionID] = conv
	r.mu.Unlock()

	log.Debug().Str("session_id", sessionID).Msg("Conversation created")

	go conv.FetchLanguages(context.Background())

	return conv
}

// Lookup returns the session's conversation without creating one
func (r *Registry) Lookup(sessionID string) (*Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[sessionID]
	return conv, ok
}

// Remove forgets the session's conversation so its next request starts afresh.
// Submissions still in flight finish in the background and Wait still covers them.
func (r *Registry) Remove(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[sessionID]
	if !ok {
		return false
	}
	delete(r.conversations, sessionID)
	if conv.InFlight() > 0 {
		r.draining = append(r.draining, conv)
	}

	log.Debug().Str("session_id", sessionID).Int("in_flight", conv.InFlight()).Msg("Conversation removed")
	return true
}

// Sweep removes conversations idle for longer than maxIdle that have nothing in
// flight. It returns the number removed.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, conv := range r.conversations {
		if conv.InFlight() == 0 && conv.LastActive().Before(cutoff) {
			delete(r.conversations, id)
			removed++
		}
	}

	draining := r.draining[:0]
	for _, conv := range r.draining {
		if conv.InFlight() > 0 {
			draining = append(draining, conv)
		}
	}
	r.draining = draining

	if removed > 0 {
		log.Info().Int("removed", removed).Int("remaining", len(r.conversations)).Msg("Swept idle conversations")
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conversations)
}

// Wait blocks until every submission of every conversation has completed
func (r *Registry) Wait() {
	r.mu.Lock()
	conversations := make([]*Conversation, 0, len(r.conversations)+len(r.draining))
	for _, conv := range r.conversations {
		conversations = append(conversations, conv)
	}
	conversations = append(conversations, r.draining...)
	r.mu.Unlock()

	for _, conv := range conversations {
		conv.Wait()
	}
}
