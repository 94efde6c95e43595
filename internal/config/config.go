package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/spec-kit/service-desk/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Lifecycle    LifecycleConfig
	Tenant       TenantConfig
	Audit        AuditConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"service-desk"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
}

// PostgresConfig holds DB connection values. An empty DSN runs the in-memory store.
type PostgresConfig struct {
	DSN               string        `env:"POSTGRES_DSN"`
	MaxConns          int32         `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns          int32         `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations     bool          `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	ConnMaxIdleSec    int32         `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec    int32         `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
	HealthCheckPeriod time.Duration `env:"POSTGRES_HEALTHCHECK_PERIOD" envDefault:"1m"`
	ConnectRetries    int           `env:"POSTGRES_CONNECT_RETRIES" envDefault:"3"`
	ConnectRetryDelay time.Duration `env:"POSTGRES_CONNECT_RETRY_DELAY" envDefault:"2s"`
}

// RedisConfig holds Redis connection values. An empty Addr disables the shared cache.
type RedisConfig struct {
	Addr         string        `env:"REDIS_ADDR"`
	Password     string        `env:"REDIS_PASSWORD"`
	DB           int           `env:"REDIS_DB" envDefault:"0"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"2s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"500ms"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"500ms"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Development bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
	Service     string `env:"APP_NAME" envDefault:"service-desk"`
}

// AuthConfig defines bearer token parameters.
type AuthConfig struct {
	JWTSecret             string `env:"AUTH_JWT_SECRET" envDefault:"dev-secret"`
	Issuer                string `env:"AUTH_JWT_ISSUER" envDefault:"service-desk"`
	AccessTokenTTLMinutes int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" envDefault:"60"`
}

// LifecycleConfig tunes the request lifecycle.
type LifecycleConfig struct {
	TicketNumberRetries int `env:"TICKET_NUMBER_MAX_RETRIES" envDefault:"10"`
}

// TenantConfig tunes the organization gate.
type TenantConfig struct {
	AllowedStatuses []string      `env:"TENANT_ALLOWED_STATUSES" envSeparator:"," envDefault:"TRIAL,ACTIVE"`
	CacheTTL        time.Duration `env:"TENANT_CACHE_TTL" envDefault:"30s"`
	CacheSize       int           `env:"TENANT_CACHE_SIZE" envDefault:"1000"`

	// SeedOrganizationID is registered as an active tenant when running without Postgres.
	SeedOrganizationID string `env:"TENANT_SEED_ORGANIZATION_ID" envDefault:"org-dev"`
}

// AuditConfig tunes the asynchronous audit sink.
type AuditConfig struct {
	BufferSize   int           `env:"AUDIT_BUFFER_SIZE" envDefault:"1024"`
	BatchSize    int           `env:"AUDIT_BATCH_SIZE" envDefault:"100"`
	BatchTimeout time.Duration `env:"AUDIT_BATCH_TIMEOUT" envDefault:"1s"`
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string `env:"NOTIFY_EMAIL_FROM" envDefault:"noreply@example.com"`
	WebhookURL string `env:"NOTIFY_WEBHOOK_URL"`
	// QueueSize 0 delivers notifications on the publishing goroutine.
	QueueSize int `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`
}

// Load reads configuration from a .env file, if present, and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return parse(env.Options{})
}

// LoadFrom parses configuration from the given variables only.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if _, err := cfg.Tenant.Statuses(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns how long minted tokens stay valid.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// Statuses converts the allowed tenant statuses.
func (t TenantConfig) Statuses() ([]domain.OrganizationStatus, error) {
	statuses := make([]domain.OrganizationStatus, 0, len(t.AllowedStatuses))
	for _, raw := range t.AllowedStatuses {
		status := domain.OrganizationStatus(strings.ToUpper(strings.TrimSpace(raw)))
		if status == "" {
			continue
		}
		if !status.IsValid() {
			return nil, fmt.Errorf("invalid TENANT_ALLOWED_STATUSES entry %q", raw)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
