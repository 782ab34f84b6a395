package models

import "strings"

type InputMode string

const (
	InputModeText InputMode = "text"
	InputModeFile InputMode = "file"
)

// File is an uploaded document awaiting translation
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Data        []byte `json:"-"`
}

// Payload is one user submission
type Payload struct {
	Text           string
	File           *File
	TargetLanguage string
}

// IsEmpty reports whether the payload carries neither text nor a file
func (p Payload) IsEmpty() bool {
	return p.File == nil && strings.TrimSpace(p.Text) == ""
}

// TranslateTextRequest is the body of POST /translate-text
type TranslateTextRequest struct {
	Text           string `json:"text" validate:"required"`
	TargetLanguage string `json:"target_language" validate:"required"`
}

// TranslateTextResponse is the body returned by POST /translate-text
type TranslateTextResponse struct {
	TranslatedText string `json:"translated_text"`
}

// TranslateDocumentResponse is the JSON body POST /translate-document may return
// instead of a binary stream
type TranslateDocumentResponse struct {
	TranslatedText    string `json:"translated_text,omitempty"`
	TranslatedFileURL string `json:"translated_file_url,omitempty"`
}

// DocumentResult is the outcome of a document translation: either a URL given by the
// backend or the translated bytes themselves
type DocumentResult struct {
	// Binary is set when the backend streamed the translated document itself
	Binary         bool
	TranslatedText string
	FileURL        string
	FileName       string
	ContentType    string
	Data           []byte
}
