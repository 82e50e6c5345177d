package config

// EnvPrefix is the envconfig prefix shared by every MyPack binary.
const EnvPrefix = "MYPACK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "MYPACK_DB_DSN"
	EnvDBHost = "MYPACK_DB_HOST"
	EnvDBUser = "MYPACK_DB_USER"
	EnvDBName = "MYPACK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
