package config

// EnvPrefix is the envconfig prefix for every setting.
const EnvPrefix = "SWAYAA"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "SWAYAA_DB_DSN"
	EnvDBHost = "SWAYAA_DB_HOST"
	EnvDBUser = "SWAYAA_DB_USER"
	EnvDBName = "SWAYAA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
