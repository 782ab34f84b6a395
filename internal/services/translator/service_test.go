package translator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/translatex/relay/internal/services/chat/models"
	"github.com/translatex/relay/internal/services/relay"
)

func newTestService(t *testing.T, router *mux.Router) *Service {
	t.Helper()
	upstream := httptest.NewServer(router)
	t.Cleanup(upstream.Close)
	return NewService(relay.NewService(upstream.URL, "hf_test", 0))
}

func TestTranslateText(t *testing.T) {
	t.Run("returns translated text", func(t *testing.T) {
		r := mux.NewRouter()
		r.HandleFunc("/translate-text", func(w http.ResponseWriter, r *http.Request) {
			var req models.TranslateTextRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Hello", req.Text)
			assert.Equal(t, "fr", req.TargetLanguage)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"translated_text":"Bonjour"}`))
		}).Methods(http.MethodPost)

		got, err := newTestService(t, r).TranslateText(context.Background(), "Hello", "fr")
		require.NoError(t, err)
		assert.Equal(t, "Bonjour", got)
	})

	t.Run("non-success status is an error", func(t *testing.T) {
		r := mux.NewRouter()
		r.HandleFunc("/translate-text", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"model crashed"}`))
		})

		_, err := newTestService(t, r).TranslateText(context.Background(), "Hello", "fr")
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	})

	t.Run("acknowledgement without body", func(t *testing.T) {
		r := mux.NewRouter()
		r.HandleFunc("/translate-text", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		got, err := newTestService(t, r).TranslateText(context.Background(), "Hello", "fr")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("binary answer is unexpected", func(t *testing.T) {
		r := mux.NewRouter()
		r.HandleFunc("/translate-text", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte{0x00})
		})

		_, err := newTestService(t, r).TranslateText(context.Background(), "Hello", "fr")
		assert.ErrorIs(t, err, ErrUnexpectedResponse)
	})

	t.Run("missing fields never reach the backend", func(t *testing.T) {
		called := false
		r := mux.NewRouter()
		r.HandleFunc("/translate-text", func(w http.ResponseWriter, r *http.Request) {
			called = true
		})
		svc := newTestService(t, r)

		_, err := svc.TranslateText(context.Background(), "", "fr")
		assert.ErrorIs(t, err, ErrInvalidRequest)
		_, err = svc.TranslateText(context.Background(), "Hello", "")
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.False(t, called)
	})
}

func TestTranslateDocument(t *testing.T) {
	file := &models.File{Name: "report.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 original")}

	t.Run("binary response", func(t *testing.T) {
		r := mux.NewRouter()
		r.HandleFunc("/translate-document", func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "fr", r.FormValue("target_language"))

			f, header, err := r.FormFile("file")
			if !assert.NoError(t, err) {
				return
			}
			defer f.Close()
			data, _ := io.ReadAll(f)
			assert.Equal(t, "report.pdf", header.Filename)
			assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))
			assert.Equal(t, "%PDF-1.4 original", string(data))

			w.Header().Set("Content-Type", "application/octet-stream")
			w.Header().Set("Content-Disposition", `attachment; filename="report_fr.pdf"`)
			_, _ = w.Write([]byte("%PDF-1.4 traduit"))
		}).Methods(http.MethodPost)

		got, err := newTestService(t, r).TranslateDocument(context.Background(), file, "fr")
		require.NoError(t, err)
		assert.True(t, got.Binary)
		assert.Equal(t, "report_fr.pdf", got.FileName)
		assert.Equal(t, "application/octet-stream", got.ContentType)
		assert.Equal(t, "%PDF-1.4 traduit", string(got.Data))
	})

	t.Run("json response with url", func(t *testing.T) {
		r := mux.NewRouter()
		r.HandleFunc("/translate-document", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"translated_file_url":"https://files.example.com/report_fr.pdf"}`))
		})

		got, err := newTestService(t, r).TranslateDocument(context.Background(), file, "fr")
		require.NoError(t, err)
		assert.False(t, got.Binary)
		assert.Equal(t, "https://files.example.com/report_fr.pdf", got.FileURL)
	})

	t.Run("binary error status is still an error", func(t *testing.T) {
		r := mux.NewRouter()
		r.HandleFunc("/translate-document", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := newTestService(t, r).TranslateDocument(context.Background(), file, "fr")
		var statusErr *StatusError
		assert.ErrorAs(t, err, &statusErr)
	})
}

func TestSupportedLanguages(t *testing.T) {
	t.Run("decodes list", func(t *testing.T) {
		r := mux.NewRouter()
		r.HandleFunc("/supported-languages", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"languages":[{"code":"fr","name":"French"},{"code":"de","name":"German"}]}`))
		}).Methods(http.MethodGet)

		got, err := newTestService(t, r).SupportedLanguages(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []models.Language{{Code: "fr", Name: "French"}, {Code: "de", Name: "German"}}, got)
	})

	t.Run("missing list is empty", func(t *testing.T) {
		r := mux.NewRouter()
		r.HandleFunc("/supported-languages", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		})

		got, err := newTestService(t, r).SupportedLanguages(context.Background())
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("html is unexpected", func(t *testing.T) {
		r := mux.NewRouter()
		r.HandleFunc("/supported-languages", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html></html>`))
		})

		_, err := newTestService(t, r).SupportedLanguages(context.Background())
		assert.ErrorIs(t, err, ErrUnexpectedResponse)
	})
}
