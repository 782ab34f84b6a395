package proxy

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/translatex/relay/internal/services/relay"
)

// HandleRelay forwards the request under the proxy prefix to the translation
// backend and shapes the reply. The backend path is the "path" route variable.
func HandleRelay(relayService *relay.Service, maxBodyBytes int64, w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]

	payload, err := relay.NewPayload(w, r, maxBodyBytes)
	if err != nil {
		if errors.Is(err, relay.ErrInvalidJSONBody) {
			log.Warn().Str("path", path).Msg("Client sent a non-JSON body to the proxy")
		} else {
			log.Error().Err(err).Str("path", path).Msg("Failed to read proxy request body")
		}
		relay.WriteError(w, err)
		return
	}

	resp, err := relayService.Forward(r.Context(), relay.Request{
		Method:   r.Method,
		Path:     path,
		RawQuery: r.URL.RawQuery,
		Body:     payload,
	})
	if err != nil {
		log.Error().Err(err).Str("method", r.Method).Str("path", path).Msg("Proxy request failed")
		relay.WriteError(w, err)
		return
	}

	log.Debug().
		Str("method", r.Method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("kind", resp.Kind.String()).
		Int("redirects", resp.Redirects).
		Msg("Proxied request")

	if err := resp.Write(w); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to write proxied response")
	}
}
