package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/translatex/relay/internal/config"
)

func requestWithCookies(cookies []*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func TestSessionLifecycle(t *testing.T) {
	defer config.SetJWTSecret([]byte("session-test-secret"))()
	svc := NewServiceWithStore(NewMemoryStore(), time.Hour)

	w := httptest.NewRecorder()
	claims, err := svc.CreateSession(context.Background(), w)
	require.NoError(t, err)
	require.NotEmpty(t, claims.SessionID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, config.GetSessionCookieName(), cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	t.Run("valid cookie resolves the session", func(t *testing.T) {
		got, err := svc.ValidateSession(requestWithCookies(cookies))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, claims.SessionID, got.SessionID)
	})

	t.Run("missing cookie yields no session", func(t *testing.T) {
		got, err := svc.ValidateSession(requestWithCookies(nil))
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("cookie signed with another secret is rejected", func(t *testing.T) {
		restore := config.SetJWTSecret([]byte("other-secret"))
		defer restore()

		got, err := svc.ValidateSession(requestWithCookies(cookies))
		assert.Error(t, err)
		assert.Nil(t, got)
	})

	t.Run("cleared session is no longer valid", func(t *testing.T) {
		cw := httptest.NewRecorder()
		cleared := svc.ClearSession(cw, requestWithCookies(cookies))
		assert.Equal(t, claims.SessionID, cleared)

		got, err := svc.ValidateSession(requestWithCookies(cookies))
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestParseTokenRejectsNonHMAC(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{SessionID: "abc"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = parseToken(signed)
	assert.Error(t, err)
}

func TestMemoryStoreExpiredClaims(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	expired := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		SessionID:        "old",
	}
	require.NoError(t, store.Set(ctx, "old", expired, time.Hour))

	got, err := store.Get(ctx, "old")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
