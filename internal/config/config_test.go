package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "mock", cfg.DeliveryProvider)
	assert.Equal(t, 1, cfg.DispatchConcurrency)
	assert.Equal(t, "@every 1m", cfg.SweepCron)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "scheduled_notifications", cfg.DynamoTables.ScheduledNotifications)
	assert.False(t, cfg.SweepInAPI)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DISPATCH_CONCURRENCY", "8")
	t.Setenv("SWEEP_IN_API", "true")
	t.Setenv("SWEEP_TIMEOUT", "90s")
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "0.25")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg := Load()
	assert.Equal(t, 8, cfg.DispatchConcurrency)
	assert.True(t, cfg.SweepInAPI)
	assert.Equal(t, 90*time.Second, cfg.SweepTimeout)
	assert.InDelta(t, 0.25, cfg.Breaker.FailureThreshold, 1e-9)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DISPATCH_CONCURRENCY", "lots")
	t.Setenv("SWEEP_LOCK_TTL", "soon")
	cfg := Load()
	assert.Equal(t, 1, cfg.DispatchConcurrency)
	assert.Equal(t, 50*time.Second, cfg.SweepLockTTL)
}
