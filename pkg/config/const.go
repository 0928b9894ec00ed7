package config

const (
	EnvPrefix = "stickerlandia"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "STICKERLANDIA_DB_DSN"
	EnvDBHost = "STICKERLANDIA_DB_HOST"
	EnvDBUser = "STICKERLANDIA_DB_USER"
	EnvDBName = "STICKERLANDIA_DB_NAME"
)
