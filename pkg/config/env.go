package config

// EnvPrefix is handed to envconfig; every variable below is spelled out in full
// on the struct tags so the names stay greppable.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN    = "STOREFRONT_DB_DSN"
	EnvDBDriver = "STOREFRONT_DB_DRIVER"
	EnvDBHost   = "STOREFRONT_DB_HOST"
	EnvDBUser   = "STOREFRONT_DB_USER"
	EnvDBName   = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvCheckoutSubmitTimeout = "STOREFRONT_CHECKOUT_SUBMIT_TIMEOUT"
	EnvCheckoutSessionTTL    = "STOREFRONT_CHECKOUT_SESSION_TTL"
	EnvCheckoutSessionStore  = "STOREFRONT_CHECKOUT_SESSION_STORE"

	EnvCORSOrigins = "STOREFRONT_CORS_ORIGINS"

	EnvGCPProjectID       = "STOREFRONT_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic  = "STOREFRONT_PUBSUB_ORDERS_TOPIC"
	EnvOutboxBatchSize    = "STOREFRONT_OUTBOX_PUBLISH_BATCH_SIZE"
	EnvOutboxPollInterval = "STOREFRONT_OUTBOX_PUBLISH_POLL_MS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
