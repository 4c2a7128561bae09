package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for fields without one.
const EnvPrefix = "SCMARKET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "SCMARKET_APP_ENV"
	EnvPort   = "SCMARKET_APP_PORT"

	EnvDBDSN  = "SCMARKET_DB_DSN"
	EnvDBHost = "SCMARKET_DB_HOST"
	EnvDBUser = "SCMARKET_DB_USER"
	EnvDBName = "SCMARKET_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
