package translator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/translatex/relay/internal/services/chat/models"
	"github.com/translatex/relay/internal/services/relay"
)

const (
	textPath      = "translate-text"
	documentPath  = "translate-document"
	languagesPath = "supported-languages"
)

// use a single instance of Validate, it caches struct info
var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalidRequest is returned before any backend call when a request is missing a field
var ErrInvalidRequest = errors.New("invalid translation request")

// ErrUnexpectedResponse is returned when the backend answers with a shape the
// endpoint does not produce
var ErrUnexpectedResponse = errors.New("unexpected response from translation backend")

// StatusError is returned when the backend answers outside the 2xx range
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("translation backend returned status %d", e.StatusCode)
}

// Service calls the translation endpoints through the relay
type Service struct {
	relay *relay.Service
}

func NewService(relayService *relay.Service) *Service {
	return &Service{relay: relayService}
}

// TranslateText translates text into targetLanguage. An empty string with a nil
// error means the backend acknowledged the request without returning text.
func (s *Service) TranslateText(ctx context.Context, text, targetLanguage string) (string, error) {
	req := models.TranslateTextRequest{
		Text:           text,
		TargetLanguage: targetLanguage,
	}
	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	payload, err := relay.JSONPayload(req)
	if err != nil {
		return "", err
	}

	resp, err := s.forward(ctx, http.MethodPost, textPath, payload)
	if err != nil {
		return "", err
	}
	defer resp.Close()

	switch resp.Kind {
	case relay.KindJSON:
		var body models.TranslateTextResponse
		if err := resp.DecodeJSON(&body); err != nil {
			return "", err
		}
		return body.TranslatedText, nil
	case relay.KindFallback:
		return "", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnexpectedResponse, resp.Header.Get("Content-Type"))
	}
}

// TranslateDocument uploads file for translation into targetLanguage
func (s *Service) TranslateDocument(ctx context.Context, file *models.File, targetLanguage string) (*models.DocumentResult, error) {
	payload, err := documentPayload(file, targetLanguage)
	if err != nil {
		return nil, err
	}

	resp, err := s.forward(ctx, http.MethodPost, documentPath, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	switch resp.Kind {
	case relay.KindBinary:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read translated document: %w", err)
		}
		name, _ := FileNameFromDisposition(resp.Header.Get("Content-Disposition"))
		return &models.DocumentResult{
			Binary:      true,
			FileName:    name,
			ContentType: resp.Header.Get("Content-Type"),
			Data:        data,
		}, nil
	case relay.KindJSON:
		var body models.TranslateDocumentResponse
		if err := resp.DecodeJSON(&body); err != nil {
			return nil, err
		}
		return &models.DocumentResult{
			TranslatedText: body.TranslatedText,
			FileURL:        body.TranslatedFileURL,
		}, nil
	default:
		return &models.DocumentResult{}, nil
	}
}

// SupportedLanguages fetches the backend's language list
func (s *Service) SupportedLanguages(ctx context.Context) ([]models.Language, error) {
	resp, err := s.forward(ctx, http.MethodGet, languagesPath, relay.Payload{})
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	if resp.Kind != relay.KindJSON {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedResponse, resp.Header.Get("Content-Type"))
	}

	var body models.SupportedLanguagesResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, err
	}
	if body.Languages == nil {
		return []models.Language{}, nil
	}
	return body.Languages, nil
}

func (s *Service) forward(ctx context.Context, method, path string, payload relay.Payload) (*relay.Response, error) {
	resp, err := s.relay.Forward(ctx, relay.Request{
		Method: method,
		Path:   path,
		Body:   payload,
	})
	if err != nil {
		return nil, err
	}

	if !resp.Success() {
		status := resp.StatusCode
		if log.Debug().Enabled() {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			log.Debug().Int("status", status).Str("path", path).Str("body", string(body)).Msg("Translation backend error body")
		}
		_ = resp.Close()
		return nil, &StatusError{StatusCode: status}
	}

	return resp, nil
}

func documentPayload(file *models.File, targetLanguage string) (relay.Payload, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name)))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return relay.Payload{}, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return relay.Payload{}, fmt.Errorf("failed to write file part: %w", err)
	}
	if err := mw.WriteField("target_language", targetLanguage); err != nil {
		return relay.Payload{}, fmt.Errorf("failed to write target language: %w", err)
	}
	if err := mw.Close(); err != nil {
		return relay.Payload{}, fmt.Errorf("failed to close multipart body: %w", err)
	}

	return relay.Payload{ContentType: mw.FormDataContentType(), Data: buf.Bytes()}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
