package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GoogleMaps   GoogleMapsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Pricing      PricingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MEALDASH_APP_ENV" required:"true"`
	Port         string `envconfig:"MEALDASH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MEALDASH_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"MEALDASH_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"MEALDASH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MEALDASH_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MEALDASH_DB_DSN"`
	Driver string `envconfig:"MEALDASH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MEALDASH_DB_HOST"`
	LegacyPort     int    `envconfig:"MEALDASH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEALDASH_DB_USER"`
	LegacyPassword string `envconfig:"MEALDASH_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEALDASH_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEALDASH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MEALDASH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEALDASH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEALDASH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEALDASH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"MEALDASH_DB_SLOW_QUERY" default:"500ms"`
}

// IsSQLite reports whether the local single-file driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"MEALDASH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MEALDASH_REDIS_ADDR"`
	Password     string        `envconfig:"MEALDASH_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEALDASH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEALDASH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEALDASH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEALDASH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEALDASH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEALDASH_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"MEALDASH_REDIS_KEY_PREFIX" default:"md"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MEALDASH_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MEALDASH_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MEALDASH_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"MEALDASH_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	MaxAgeSeconds  int      `envconfig:"MEALDASH_CORS_MAX_AGE_SECONDS" default:"300"`
}

type RateLimitConfig struct {
	CheckoutWindow time.Duration `envconfig:"MEALDASH_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutLimit  int64         `envconfig:"MEALDASH_RATE_LIMIT_CHECKOUT_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MEALDASH_AUTO_MIGRATE" default:"false"`
	PushEnabled bool `envconfig:"MEALDASH_FEATURE_PUSH_ENABLED" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"MEALDASH_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GoogleMapsConfig struct {
	APIKey  string        `envconfig:"MEALDASH_GOOGLE_MAPS_API_KEY"`
	BaseURL string        `envconfig:"MEALDASH_GOOGLE_MAPS_BASE_URL" default:"https://maps.googleapis.com"`
	Timeout time.Duration `envconfig:"MEALDASH_GOOGLE_MAPS_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"MEALDASH_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON string `envconfig:"MEALDASH_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"MEALDASH_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription       string `envconfig:"MEALDASH_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"MEALDASH_PUBSUB_NOTIFICATION_TOPIC" default:"md-notification-events"`
	NotificationSubscription string `envconfig:"MEALDASH_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MEALDASH_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MEALDASH_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MEALDASH_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"MEALDASH_CRON_INTERVAL" default:"1h"`
	LockTTL             time.Duration `envconfig:"MEALDASH_CRON_LOCK_TTL" default:"10m"`
	JobTimeout          time.Duration `envconfig:"MEALDASH_CRON_JOB_TIMEOUT" default:"5m"`
	MissedGraceDays     int           `envconfig:"MEALDASH_CRON_MISSED_GRACE_DAYS" default:"1"`
	OutboxRetentionDays int           `envconfig:"MEALDASH_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	NotificationTTLDays int           `envconfig:"MEALDASH_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
}

type PricingConfig struct {
	FallbackBaseCharge string `envconfig:"MEALDASH_PRICING_FALLBACK_BASE_CHARGE" default:"0"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=sqlite", EnvDBDSN, EnvDBDriver)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
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
