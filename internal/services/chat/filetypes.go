package chat

import (
	"errors"
	"mime"
	"strings"
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

// SupportedFileTypes are the document types accepted for translation
var SupportedFileTypes = []string{
	"application/pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",   // docx
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",         // xlsx
	"application/vnd.openxmlformats-officedocument.presentationml.presentation", // pptx
}

// DeclaredMediaType returns contentType lower-cased and without parameters
func DeclaredMediaType(contentType string) string {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}
	return mediaType
}

// IsSupportedFileType reports whether the declared contentType, ignoring parameters,
// is in the allow-list. The file content is never consulted.
func IsSupportedFileType(contentType string) bool {
	mediaType := DeclaredMediaType(contentType)
	for _, supported := range SupportedFileTypes {
		if mediaType == supported {
			return true
		}
	}
	return false
}
