package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrInvalidJSONBody is returned when a non-multipart body is not valid JSON
var ErrInvalidJSONBody = errors.New("request body is not valid JSON")

// Payload is a buffered request body. It is buffered so that every redirect hop
// re-sends exactly the same bytes.
type Payload struct {
	ContentType string
	Data        []byte
}

// IsMultipart reports whether the payload is multipart form data
func (p Payload) IsMultipart() bool {
	return isMultipart(p.ContentType)
}

func (p Payload) reader() io.Reader {
	if len(p.Data) == 0 {
		return nil
	}
	return bytes.NewReader(p.Data)
}

// JSONPayload marshals v into a JSON payload
func JSONPayload(v interface{}) (Payload, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return Payload{ContentType: "application/json", Data: data}, nil
}

// NewPayload buffers an inbound request body. Multipart bodies keep their original
// content type so the boundary survives. Any other non-empty body must be JSON and
// is forwarded as application/json. maxBytes <= 0 disables the size limit.
func NewPayload(w http.ResponseWriter, r *http.Request, maxBytes int64) (Payload, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return Payload{}, nil
	}

	body := r.Body
	if maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to read request body: %w", err)
	}

	contentType := r.Header.Get("Content-Type")
	if isMultipart(contentType) {
		return Payload{ContentType: contentType, Data: data}, nil
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return Payload{}, nil
	}

	if !json.Valid(data) {
		return Payload{}, ErrInvalidJSONBody
	}

	return Payload{ContentType: "application/json", Data: data}, nil
}

func isMultipart(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "multipart/form-data")
}
