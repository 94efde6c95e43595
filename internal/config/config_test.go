package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/service-desk/internal/domain"
)

func TestLoadFromDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Empty(t, cfg.Postgres.DSN)
	assert.True(t, cfg.Postgres.RunMigrations)
	assert.Equal(t, 3, cfg.Postgres.ConnectRetries)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 2*time.Second, cfg.Redis.DialTimeout)
	assert.Equal(t, "org-dev", cfg.Tenant.SeedOrganizationID)
	assert.Equal(t, 256, cfg.Notification.QueueSize)
	assert.Equal(t, 10, cfg.Lifecycle.TicketNumberRetries)
	assert.Equal(t, 30*time.Second, cfg.Tenant.CacheTTL)
	assert.Equal(t, time.Second, cfg.Audit.BatchTimeout)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL())

	statuses, err := cfg.Tenant.Statuses()
	require.NoError(t, err)
	assert.Equal(t, []domain.OrganizationStatus{domain.OrganizationStatusTrial, domain.OrganizationStatusActive}, statuses)
}

func TestLoadFromOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(map[string]string{
		"APP_PORT":                     "9090",
		"HTTP_REQUEST_TIMEOUT_SECONDS": "0",
		"POSTGRES_DSN":                 "postgres://desk@localhost/desk",
		"POSTGRES_MAX_CONNS":           "25",
		"TICKET_NUMBER_MAX_RETRIES":    "4",
		"TENANT_ALLOWED_STATUSES":      "active, past_due",
		"TENANT_CACHE_TTL":             "2m",
		"AUDIT_BATCH_SIZE":             "10",
		"NOTIFY_QUEUE_SIZE":            "0",
	})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Zero(t, cfg.App.RequestTimeout())
	assert.Equal(t, int32(25), cfg.Postgres.MaxConns)
	assert.Equal(t, 4, cfg.Lifecycle.TicketNumberRetries)
	assert.Equal(t, 2*time.Minute, cfg.Tenant.CacheTTL)
	assert.Equal(t, 10, cfg.Audit.BatchSize)
	assert.Zero(t, cfg.Notification.QueueSize)

	statuses, err := cfg.Tenant.Statuses()
	require.NoError(t, err)
	assert.Equal(t, []domain.OrganizationStatus{domain.OrganizationStatusActive, domain.OrganizationStatusPastDue}, statuses)
}

func TestLoadFromRejectsBadValues(t *testing.T) {
	t.Parallel()

	_, err := LoadFrom(map[string]string{"TENANT_ALLOWED_STATUSES": "ACTIVE,FROZEN"})
	assert.ErrorContains(t, err, "FROZEN")

	_, err = LoadFrom(map[string]string{"REDIS_DB": "one"})
	assert.Error(t, err)
}
