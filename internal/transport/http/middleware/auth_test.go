package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtinfra "github.com/go-notify-nosql/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	p, err := jwtinfra.New(key, time.Hour)
	require.NoError(t, err)
	return p
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func serveAuth(p *jwtinfra.Provider, header string, next http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/notifications", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	Auth(p)(next).ServeHTTP(rr, req)
	return rr
}

func TestAuth_RejectsMissingOrMalformedHeader(t *testing.T) {
	p := newTestProvider(t)
	for _, h := range []string{"", "Bearer", "Bearer   ", "Basic dXNlcjpwYXNz", "Bearer not-a-real-token"} {
		rr := serveAuth(p, h, http.HandlerFunc(okHandler))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, h)
		assert.Equal(t, `Bearer realm="notify"`, rr.Header().Get("WWW-Authenticate"), h)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rr.Body.String(), h)
	}
}

func TestAuth_RejectsTokenFromAnotherKey(t *testing.T) {
	signed, err := newTestProvider(t).Sign("u1", "admin", "s1")
	require.NoError(t, err)

	rr := serveAuth(newTestProvider(t), "Bearer "+signed, http.HandlerFunc(okHandler))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_ValidToken_InjectsClaims(t *testing.T) {
	p := newTestProvider(t)
	signed, err := p.Sign("u1", "user", "sess1")
	require.NoError(t, err)

	var got *jwtinfra.Claims
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := serveAuth(p, "bearer "+signed, capture)
	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "user", got.Role)
	assert.Equal(t, "sess1", got.SessionID)
}
