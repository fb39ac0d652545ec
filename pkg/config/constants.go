package config

const (
	EnvPrefix = "MEALDASH"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "MEALDASH_APP_ENV"
	EnvPort     = "MEALDASH_APP_PORT"
	EnvLogLevel = "MEALDASH_LOG_LEVEL"

	EnvDBDSN    = "MEALDASH_DB_DSN"
	EnvDBDriver = "MEALDASH_DB_DRIVER"
	EnvDBHost   = "MEALDASH_DB_HOST"
	EnvDBPort   = "MEALDASH_DB_PORT"
	EnvDBUser   = "MEALDASH_DB_USER"
	EnvDBPass   = "MEALDASH_DB_PASSWORD"
	EnvDBName   = "MEALDASH_DB_NAME"

	EnvRedisURL = "MEALDASH_REDIS_URL"

	EnvJWTSecret  = "MEALDASH_JWT_SECRET"
	EnvJWTIssuer  = "MEALDASH_JWT_ISSUER"
	EnvJWTExpMins = "MEALDASH_JWT_EXPIRATION_MINUTES"

	EnvCORSAllowedOrigins = "MEALDASH_CORS_ALLOWED_ORIGINS"

	EnvGCPProjectID = "MEALDASH_GCP_PROJECT_ID"

	EnvPubSubDomainTopic       = "MEALDASH_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub         = "MEALDASH_PUBSUB_DOMAIN_SUBSCRIPTION"
	EnvPubSubNotificationTopic = "MEALDASH_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "MEALDASH_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvCronInterval         = "MEALDASH_CRON_INTERVAL"
	EnvCronMissedGraceDays  = "MEALDASH_CRON_MISSED_GRACE_DAYS"
	EnvCronOutboxRetainDays = "MEALDASH_CRON_OUTBOX_RETENTION_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
