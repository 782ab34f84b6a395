package relay

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayload(t *testing.T) {
	t.Run("json body keeps bytes and forces json content type", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/proxy/translate-text", strings.NewReader(`{"text":"Hello","target_language":"fr"}`))
		r.Header.Set("Content-Type", "text/plain")

		p, err := NewPayload(httptest.NewRecorder(), r, 0)
		require.NoError(t, err)
		assert.Equal(t, "application/json", p.ContentType)
		assert.JSONEq(t, `{"text":"Hello","target_language":"fr"}`, string(p.Data))
		assert.False(t, p.IsMultipart())
	})

	t.Run("invalid json is rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/proxy/translate-text", strings.NewReader(`{"text":`))

		_, err := NewPayload(httptest.NewRecorder(), r, 0)
		assert.ErrorIs(t, err, ErrInvalidJSONBody)
	})

	t.Run("empty body yields empty payload", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/proxy/supported-languages", nil)

		p, err := NewPayload(httptest.NewRecorder(), r, 0)
		require.NoError(t, err)
		assert.Empty(t, p.Data)
		assert.Nil(t, p.reader())
	})

	t.Run("multipart keeps boundary", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("target_language", "de"))
		require.NoError(t, mw.Close())

		r := httptest.NewRequest(http.MethodPost, "/api/proxy/translate-document", bytes.NewReader(buf.Bytes()))
		r.Header.Set("Content-Type", mw.FormDataContentType())

		p, err := NewPayload(httptest.NewRecorder(), r, 0)
		require.NoError(t, err)
		assert.True(t, p.IsMultipart())
		assert.Equal(t, mw.FormDataContentType(), p.ContentType)
		assert.Equal(t, buf.Bytes(), p.Data)
	})

	t.Run("size limit", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/proxy/translate-text", strings.NewReader(`{"text":"a long enough body"}`))

		_, err := NewPayload(httptest.NewRecorder(), r, 8)
		assert.Error(t, err)
	})
}

func TestJSONPayload(t *testing.T) {
	p, err := JSONPayload(map[string]string{"text": "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", p.ContentType)
	assert.JSONEq(t, `{"text":"Hello"}`, string(p.Data))
}
