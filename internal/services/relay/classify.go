package relay

import (
	"mime"
	"strings"
)

// Kind is how an upstream response is shaped before it is returned to the caller
type Kind int

const (
	// KindFallback responses are replaced by a {"success": bool} envelope
	KindFallback Kind = iota
	// KindJSON responses are decoded and re-emitted
	KindJSON
	// KindBinary responses are streamed through with their headers
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindBinary:
		return "binary"
	default:
		return "fallback"
	}
}

// Classify maps a declared Content-Type to a Kind. JSON wins over the generic
// application/* rule, so application/problem+json is still treated as JSON.
func Classify(contentType string) Kind {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch {
	case mediaType == "":
		return KindFallback
	case strings.Contains(mediaType, "application/json"):
		return KindJSON
	case strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"):
		return KindJSON
	case strings.HasPrefix(mediaType, "application/"):
		return KindBinary
	default:
		return KindFallback
	}
}
