package config

const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "PLANNING_APP_ENV"
	EnvPort     = "PLANNING_APP_PORT"
	EnvDBDSN    = "PLANNING_DB_DSN"
	EnvDBHost   = "PLANNING_DB_HOST"
	EnvDBUser   = "PLANNING_DB_USER"
	EnvDBName   = "PLANNING_DB_NAME"
	EnvGCPProj  = "PLANNING_GCP_PROJECT_ID"
	EnvConcerts = "PLANNING_PUBSUB_CONCERTS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
