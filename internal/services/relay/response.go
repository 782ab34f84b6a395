package relay

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/translatex/relay/pkg/httpext"
)

// hop-by-hop headers are never copied from the upstream response
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Response is the final upstream response after redirect resolution
type Response struct {
	Kind       Kind
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
	URL        string
	Redirects  int
}

// FallbackEnvelope is emitted for upstream responses that are neither JSON nor binary
type FallbackEnvelope struct {
	Success bool `json:"success"`
}

func newResponse(resp *http.Response, finalURL string, redirects int) *Response {
	return &Response{
		Kind:       Classify(resp.Header.Get("Content-Type")),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
		URL:        finalURL,
		Redirects:  redirects,
	}
}

// Success reports whether the upstream status is in the 2xx range
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Status is the status code returned to the caller for JSON and fallback
// responses: 200 on upstream success, the upstream status otherwise
func (r *Response) Status() int {
	if r.Success() {
		return http.StatusOK
	}
	return r.StatusCode
}

// Close releases the upstream body
func (r *Response) Close() error {
	return r.Body.Close()
}

// DecodeJSON decodes a JSON response body into v
func (r *Response) DecodeJSON(v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode upstream response: %w", err)
	}
	return nil
}

// Write shapes the response for the caller and closes the upstream body. Errors
// raised before anything was written produce the relay error envelope.
func (r *Response) Write(w http.ResponseWriter) error {
	defer r.Body.Close()

	switch r.Kind {
	case KindJSON:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			err = fmt.Errorf("failed to read upstream response: %w", err)
			WriteError(w, err)
			return err
		}
		if !json.Valid(data) {
			log.Warn().Int("status", r.StatusCode).Msg("Upstream declared JSON but sent an invalid body, degrading to envelope")
			httpext.JsonResponse(w, r.Status(), FallbackEnvelope{Success: r.Success()})
			return nil
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(r.Status())
		_, err = w.Write(data)
		return err

	case KindBinary:
		dst := w.Header()
		for key, values := range r.Header {
			dst[key] = append([]string(nil), values...)
		}
		for _, h := range hopHeaders {
			dst.Del(h)
		}
		w.WriteHeader(r.StatusCode)
		if _, err := io.Copy(w, r.Body); err != nil {
			log.Error().Err(err).Msg("Failed to stream upstream body")
			return err
		}
		return nil

	default:
		httpext.JsonResponse(w, r.Status(), FallbackEnvelope{Success: r.Success()})
		return nil
	}
}

// WriteError writes the fixed-shape relay failure envelope with status 500
func WriteError(w http.ResponseWriter, err error) {
	httpext.JsonErrorWithDetails(w, http.StatusInternalServerError, httpext.ErrorResponse{
		Error:   "Failed to process request",
		Details: err.Error(),
	})
}
