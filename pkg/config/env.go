package config

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres   = "postgres"
	DriverSQLite     = "sqlite"
	defaultSQLiteDSN = "file:venuepos.db?cache=shared&_busy_timeout=5000"

	EnvAppEnv = "VENUEPOS_APP_ENV"
	EnvPort   = "VENUEPOS_APP_PORT"

	EnvDBDSN  = "VENUEPOS_DB_DSN"
	EnvDBHost = "VENUEPOS_DB_HOST"
	EnvDBUser = "VENUEPOS_DB_USER"
	EnvDBName = "VENUEPOS_DB_NAME"

	EnvRedisURL = "VENUEPOS_REDIS_URL"

	EnvTaxRate           = "VENUEPOS_TAX_RATE"
	EnvLowStockThreshold = "VENUEPOS_LOW_STOCK_THRESHOLD"
	EnvCheckoutTimeout   = "VENUEPOS_CHECKOUT_TIMEOUT"
	EnvBusinessTimezone  = "VENUEPOS_BUSINESS_TIMEZONE"
	EnvUseSQLite         = "VENUEPOS_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
