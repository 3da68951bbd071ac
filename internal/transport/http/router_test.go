package http

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-notify-nosql/internal/app"
	"github.com/go-notify-nosql/internal/application/dashboard"
	"github.com/go-notify-nosql/internal/config"
	"github.com/go-notify-nosql/internal/domain"
	jwtinfra "github.com/go-notify-nosql/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDashboard struct{ pending int }

func (s stubDashboard) Stats(context.Context) (*dashboard.Stats, error) {
	return &dashboard.Stats{}, nil
}

func (s stubDashboard) PendingApprovalCount(context.Context) (int, error) { return s.pending, nil }

func newProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	p, err := jwtinfra.New(key, time.Hour)
	require.NoError(t, err)
	return p
}

func newTestRouter(t *testing.T) (http.Handler, *jwtinfra.Provider) {
	p := newProvider(t)
	cfg := &config.Config{AllowedOrigins: []string{"*"}, ReportURLTTL: time.Minute}
	return NewRouter(cfg, &Deps{
		Services:    &app.Services{Dashboard: stubDashboard{pending: 4}},
		JWTProvider: p,
	}), p
}

func do(t *testing.T, h http.Handler, p *jwtinfra.Provider, method, target, role string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if role != "" {
		token, err := p.Sign("u1", role, "sess1")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_HealthIsPublic(t *testing.T) {
	h, p := newTestRouter(t)
	rr := do(t, h, p, http.MethodGet, "/v1/health-check/ping", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "pong")
}

func TestRouter_RequiresToken(t *testing.T) {
	h, p := newTestRouter(t)
	for _, target := range []string{"/v1/notifications", "/v1/scheduled-notifications", "/v1/dashboard/stats"} {
		rr := do(t, h, p, http.MethodGet, target, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, target)
	}
}

func TestRouter_AdminRoutesRejectUsers(t *testing.T) {
	h, p := newTestRouter(t)
	cases := []struct{ method, target string }{
		{http.MethodGet, "/v1/audit"},
		{http.MethodPut, "/v1/settings"},
		{http.MethodPost, "/v1/notifications/n1/approve"},
		{http.MethodPost, "/v1/notifications/n1/reject"},
		{http.MethodGet, "/v1/users"},
		{http.MethodPost, "/v1/scopes"},
	}
	for _, tc := range cases {
		rr := do(t, h, p, tc.method, tc.target, domain.RoleUser)
		assert.Equal(t, http.StatusForbidden, rr.Code, tc.target)
	}
}

func TestRouter_AuthenticatedDashboard(t *testing.T) {
	h, p := newTestRouter(t)
	rr := do(t, h, p, http.MethodGet, "/v1/dashboard/pending-approval-count", domain.RoleUser)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"count":4}`, rr.Body.String())
}

func TestRouter_ReportRoutesHiddenWithoutBucket(t *testing.T) {
	h, p := newTestRouter(t)
	rr := do(t, h, p, http.MethodGet, "/v1/notifications/n1/report", domain.RoleUser)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_Metrics(t *testing.T) {
	h, p := newTestRouter(t)
	rr := do(t, h, p, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestRouter_CORSAllowsPatch(t *testing.T) {
	h, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/v1/scheduled-notifications/s1", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}
