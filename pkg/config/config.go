package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Checkout     CheckoutConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	RateLimit    RateLimitConfig
	Housekeeping HousekeepingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(cfg.Redis); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// Configured reports whether any database settings were supplied. The API can run
// without a database; orders then fail with the "not configured" message.
func (db DBConfig) Configured() bool {
	return db.DSN != ""
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"3s"`
}

func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

type CheckoutConfig struct {
	SubmitTimeout time.Duration `envconfig:"STOREFRONT_CHECKOUT_SUBMIT_TIMEOUT" default:"20s"`
	SessionTTL    time.Duration `envconfig:"STOREFRONT_CHECKOUT_SESSION_TTL" default:"2h"`
	SessionStore  string        `envconfig:"STOREFRONT_CHECKOUT_SESSION_STORE"`
}

// Store returns the session store backend, defaulting to redis when it is configured.
func (c CheckoutConfig) Store(redis RedisConfig) string {
	store := strings.ToLower(strings.TrimSpace(c.SessionStore))
	if store != "" {
		return store
	}
	if redis.Configured() {
		return SessionStoreRedis
	}
	return SessionStoreMemory
}

func (c CheckoutConfig) validate(redis RedisConfig) error {
	if c.SubmitTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvCheckoutSubmitTimeout)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvCheckoutSessionTTL)
	}
	switch c.Store(redis) {
	case SessionStoreMemory:
		return nil
	case SessionStoreRedis:
		if !redis.Configured() {
			return fmt.Errorf("%s=redis requires %s", EnvCheckoutSessionStore, EnvRedisURL)
		}
		return nil
	default:
		return fmt.Errorf("invalid %s %q", EnvCheckoutSessionStore, c.SessionStore)
	}
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:4321"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"STOREFRONT_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"STOREFRONT_PUBSUB_ORDERS_TOPIC" default:"storefront-orders"`
}

// RateLimitConfig throttles anonymous checkout traffic per client IP. Limits of
// zero disable the corresponding policy.
type RateLimitConfig struct {
	Window             time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_WINDOW" default:"1m"`
	SessionCreateLimit int           `envconfig:"STOREFRONT_RATE_LIMIT_SESSION_CREATE" default:"30"`
	SubmitLimit        int           `envconfig:"STOREFRONT_RATE_LIMIT_SUBMIT" default:"10"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STOREFRONT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STOREFRONT_OUTBOX_PUBLISH_POLL_MS" default:"1000"`
	MaxAttempts    int `envconfig:"STOREFRONT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// HousekeepingConfig drives the cron worker.
type HousekeepingConfig struct {
	Interval            time.Duration `envconfig:"STOREFRONT_HOUSEKEEPING_INTERVAL" default:"1h"`
	OutboxRetentionDays int           `envconfig:"STOREFRONT_OUTBOX_RETENTION_DAYS" default:"30"`
	BacklogWarnAge      time.Duration `envconfig:"STOREFRONT_OUTBOX_BACKLOG_WARN_AGE" default:"15m"`
	JobTimeout          time.Duration `envconfig:"STOREFRONT_HOUSEKEEPING_JOB_TIMEOUT" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	provided := []string{}
	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		} else {
			provided = append(provided, env)
		}
	}

	// nothing set at all: run without a database
	if len(provided) == 0 {
		return nil
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
