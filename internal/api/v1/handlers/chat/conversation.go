package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	v1mware "github.com/translatex/relay/internal/api/v1/middleware"
	"github.com/translatex/relay/internal/services/chat"
	"github.com/translatex/relay/internal/services/chat/models"
	"github.com/translatex/relay/internal/services/session"
	"github.com/translatex/relay/pkg/httpext"
)

// use a single instance of Validate, it caches struct info
var validate = validator.New(validator.WithRequiredStructEnabled())

type SetInputRequest struct {
	Text string `json:"text"`
}

type SetLanguageRequest struct {
	Code string `json:"code" validate:"required,max=35"`
}

// SubmitRequest optionally overrides the conversation's current input
type SubmitRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language" validate:"omitempty,max=35"`
}

type SubmitResponse struct {
	RequestID    string    `json:"request_id,omitempty"`
	Conversation chat.View `json:"conversation"`
}

func conversationFrom(w http.ResponseWriter, r *http.Request) (*chat.Conversation, bool) {
	conv, ok := v1mware.ConversationFromContext(r.Context())
	if !ok {
		log.Error().Str("path", r.URL.Path).Msg("Chat handler reached without a session")
		httpext.JsonError(w, "No active session", http.StatusUnauthorized)
	}
	return conv, ok
}

// decodeBody decodes an optional JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		log.Warn().Err(err).Msg("Client sent malformed JSON request")
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return false
	}

	if err := validate.Struct(v); err != nil {
		log.Warn().Err(err).Msg("Request validation failed")
		httpext.JsonError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeView(w http.ResponseWriter, code int, conv *chat.Conversation) {
	httpext.JsonResponse(w, code, chat.NewView(conv.Snapshot()))
}

// HandleResetSession ends the caller's session and drops its conversation. The
// next chat request starts a new session with a fresh transcript.
func HandleResetSession(sessions *session.Service, registry *chat.Registry, w http.ResponseWriter, r *http.Request) {
	sessionID := sessions.ClearSession(w, r)
	if sessionID != "" && registry.Remove(sessionID) {
		log.Info().Str("session_id", sessionID).Msg("Conversation reset")
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetConversation returns the transcript, input state and languages
func HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, ok := conversationFrom(w, r)
	if !ok {
		return
	}
	writeView(w, http.StatusOK, conv)
}

func HandleSetInput(w http.ResponseWriter, r *http.Request) {
	conv, ok := conversationFrom(w, r)
	if !ok {
		return
	}

	var req SetInputRequest
	if !decodeBody(w, r, &req) {
		return
	}

	conv.SetInputText(req.Text)
	writeView(w, http.StatusOK, conv)
}

func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	conv, ok := conversationFrom(w, r)
	if !ok {
		return
	}

	var req SetLanguageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := conv.SetTargetLanguage(req.Code); err != nil {
		httpext.JsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeView(w, http.StatusOK, conv)
}

// HandleSelectFile stages the multipart "file" field for the next submission
func HandleSelectFile(maxUploadBytes int64, w http.ResponseWriter, r *http.Request) {
	conv, ok := conversationFrom(w, r)
	if !ok {
		return
	}

	if maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	}

	src, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httpext.JsonError(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		log.Warn().Err(err).Msg("Upload without a file field")
		httpext.JsonError(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		httpext.JsonError(w, "Failed to read file", http.StatusBadRequest)
		return
	}

	file := &models.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        len(data),
		Data:        data,
	}

	if err := conv.SelectFile(file); err != nil {
		if errors.Is(err, chat.ErrUnsupportedFileType) {
			snap := conv.Snapshot()
			message := "Unsupported file format"
			if snap.Error != nil {
				message = *snap.Error
			}
			httpext.JsonErrorWithDetails(w, http.StatusUnsupportedMediaType, httpext.ErrorResponse{
				Error:   message,
				Details: err.Error(),
			})
			return
		}
		httpext.JsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Info().Str("file_name", file.Name).Int("bytes", file.Size).Msg("File selected for translation")
	writeView(w, http.StatusOK, conv)
}

func HandleClearFile(w http.ResponseWriter, r *http.Request) {
	conv, ok := conversationFrom(w, r)
	if !ok {
		return
	}

	conv.ClearFile()
	writeView(w, http.StatusOK, conv)
}

// HandleSubmit starts a translation. With a text in the body that text is
// translated, otherwise the conversation's current input is submitted. Responds
// 202 once the placeholder is in the transcript, or 200 when there was nothing
// to submit.
func HandleSubmit(w http.ResponseWriter, r *http.Request) {
	conv, ok := conversationFrom(w, r)
	if !ok {
		return
	}

	var req SubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var (
		sub *chat.Submission
		err error
	)
	if req.Text != "" {
		sub, err = conv.Submit(r.Context(), models.Payload{Text: req.Text, TargetLanguage: req.TargetLanguage})
	} else {
		if req.TargetLanguage != "" {
			if err := conv.SetTargetLanguage(req.TargetLanguage); err != nil {
				httpext.JsonError(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		sub, err = conv.SubmitInput(r.Context())
	}

	if errors.Is(err, chat.ErrEmptyPayload) {
		httpext.JsonResponse(w, http.StatusOK, SubmitResponse{Conversation: chat.NewView(conv.Snapshot())})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to submit translation")
		httpext.JsonError(w, "Failed to submit translation", http.StatusInternalServerError)
		return
	}

	httpext.JsonResponse(w, http.StatusAccepted, SubmitResponse{
		RequestID:    sub.RequestID,
		Conversation: chat.NewView(conv.Snapshot()),
	})
}

func HandleDismissError(w http.ResponseWriter, r *http.Request) {
	conv, ok := conversationFrom(w, r)
	if !ok {
		return
	}

	conv.DismissError()
	writeView(w, http.StatusOK, conv)
}
