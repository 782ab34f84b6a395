package downloads

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/translatex/relay/internal/services/downloads"
	"github.com/translatex/relay/pkg/httpext"
)

// HandleDownload serves a stored translated document as an attachment
func HandleDownload(downloadService *downloads.Service, w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	file, err := downloadService.Get(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("download_id", id).Msg("Failed to load translated document")
		httpext.JsonError(w, "Failed to load document", http.StatusInternalServerError)
		return
	}
	if file == nil {
		httpext.JsonError(w, "Document not found or expired", http.StatusNotFound)
		return
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": file.Name})
	if disposition == "" {
		disposition = fmt.Sprintf("attachment; filename=%q", "translated-document")
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		log.Warn().Err(err).Str("download_id", id).Msg("Failed to write translated document")
	}
}
