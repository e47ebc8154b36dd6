package config

// EnvPrefix is passed to envconfig; every field carries a fully qualified tag.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv      = "STOREFRONT_APP_ENV"
	EnvPort        = "STOREFRONT_APP_PORT"
	EnvDBDSN       = "STOREFRONT_DB_DSN"
	EnvDBHost      = "STOREFRONT_DB_HOST"
	EnvDBUser      = "STOREFRONT_DB_USER"
	EnvDBPassword  = "STOREFRONT_DB_PASSWORD"
	EnvDBName      = "STOREFRONT_DB_NAME"
	EnvRedisURL    = "STOREFRONT_REDIS_URL"
	EnvJWTSecret   = "STOREFRONT_AUTH_JWT_SECRET"
	EnvJWTIssuer   = "STOREFRONT_AUTH_JWT_ISSUER"
	EnvAdminKey    = "STOREFRONT_ADMIN_KEY"
	EnvStorageBase = "STOREFRONT_STORAGE_PUBLIC_BASE_URL"
	EnvCORSOrigins = "STOREFRONT_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
