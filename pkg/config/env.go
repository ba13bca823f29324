package config

const EnvPrefix = "HOTEL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	ServiceKindAPI     = "api"
	ServiceKindCron    = "cron"
	ServiceKindMigrate = "migrate"

	StoreBackendPostgres = "postgres"
	StoreBackendMongo    = "mongo"
	StoreBackendMemory   = "memory"
)

const (
	EnvAppEnv            = "HOTEL_APP_ENV"
	EnvPort              = "HOTEL_APP_PORT"
	EnvServiceKind       = "HOTEL_SERVICE_KIND"
	EnvDBDSN             = "HOTEL_DB_DSN"
	EnvDBHost            = "HOTEL_DB_HOST"
	EnvDBUser            = "HOTEL_DB_USER"
	EnvDBName            = "HOTEL_DB_NAME"
	EnvStoreBackend      = "HOTEL_STORE_BACKEND"
	EnvMongoURI          = "HOTEL_MONGO_URI"
	EnvRedisURL          = "HOTEL_REDIS_URL"
	EnvAdminJWTSecret    = "HOTEL_ADMIN_JWT_SECRET"
	EnvAdminPasswordHash = "HOTEL_ADMIN_PASSWORD_HASH"
	EnvUseSQLite         = "HOTEL_USE_SQLITE"
)

var splitDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
