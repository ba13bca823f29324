package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Store         StoreConfig
	Mongo         MongoConfig
	Redis         RedisConfig
	Admin         AdminConfig
	Password      PasswordConfig
	RateLimit     RateLimitConfig
	Inventory     InventoryConfig
	Notifications NotificationsConfig
	Sendgrid      SendgridConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case StoreBackendPostgres, StoreBackendMongo, StoreBackendMemory:
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s", EnvStoreBackend, StoreBackendPostgres, StoreBackendMongo, StoreBackendMemory)
	}
	if !c.FeatureFlags.UseSQLite {
		if err := c.DB.ensureDSN(); err != nil {
			return err
		}
	}
	if c.Store.Backend == StoreBackendMongo && strings.TrimSpace(c.Mongo.URI) == "" {
		return fmt.Errorf("%s is required when %s=%s", EnvMongoURI, EnvStoreBackend, StoreBackendMongo)
	}
	if _, err := c.App.Location(); err != nil {
		return fmt.Errorf("invalid HOTEL_TIMEZONE: %w", err)
	}
	if strings.EqualFold(c.Service.Kind, ServiceKindAPI) {
		if c.Admin.JWTSecret == "" {
			return fmt.Errorf("%s is required for the api service", EnvAdminJWTSecret)
		}
		if c.Admin.PasswordHash == "" {
			return fmt.Errorf("%s is required for the api service", EnvAdminPasswordHash)
		}
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"HOTEL_APP_ENV" required:"true"`
	Port         string `envconfig:"HOTEL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HOTEL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HOTEL_LOG_WARN_STACK" default:"false"`
	// CORSOrigins lists the site origins allowed to call the public API.
	CORSOrigins []string `envconfig:"HOTEL_CORS_ORIGINS" default:"http://localhost:3000"`
	// Timezone decides which calendar day "today" is for check-in rules.
	Timezone string `envconfig:"HOTEL_TIMEZONE" default:"Asia/Kolkata"`
}

// Location falls back to UTC when Timezone is empty.
func (a AppConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(a.Timezone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(a.Timezone)
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HOTEL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HOTEL_DB_DSN"`
	Driver string `envconfig:"HOTEL_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"HOTEL_DB_HOST"`
	Port     int    `envconfig:"HOTEL_DB_PORT" default:"5432"`
	User     string `envconfig:"HOTEL_DB_USER"`
	Password string `envconfig:"HOTEL_DB_PASSWORD"`
	Name     string `envconfig:"HOTEL_DB_NAME"`
	SSLMode  string `envconfig:"HOTEL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HOTEL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HOTEL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HOTEL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOTEL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// StoreConfig selects where daily records and bookings are persisted.
type StoreConfig struct {
	Backend string `envconfig:"HOTEL_STORE_BACKEND" default:"postgres"`
}

type MongoConfig struct {
	URI      string        `envconfig:"HOTEL_MONGO_URI"`
	Database string        `envconfig:"HOTEL_MONGO_DATABASE" default:"hotel"`
	Timeout  time.Duration `envconfig:"HOTEL_MONGO_TIMEOUT" default:"10s"`
}

type RedisConfig struct {
	URL            string        `envconfig:"HOTEL_REDIS_URL" required:"true"`
	Address        string        `envconfig:"HOTEL_REDIS_ADDR"`
	Password       string        `envconfig:"HOTEL_REDIS_PASSWORD"`
	DB             int           `envconfig:"HOTEL_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"HOTEL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"HOTEL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"HOTEL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"HOTEL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"HOTEL_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"HOTEL_REDIS_IDEMPOTENCY_TTL" default:"24h"`
}

// AdminConfig protects the back-office routes. The password is stored as an
// argon2id hash produced by cmd/hashpw.
type AdminConfig struct {
	PasswordHash    string `envconfig:"HOTEL_ADMIN_PASSWORD_HASH"`
	JWTSecret       string `envconfig:"HOTEL_ADMIN_JWT_SECRET"`
	JWTIssuer       string `envconfig:"HOTEL_ADMIN_JWT_ISSUER" default:"selvam-residency"`
	TokenTTLMinutes int    `envconfig:"HOTEL_ADMIN_TOKEN_TTL_MINUTES" default:"720"`
}

func (a AdminConfig) TokenTTL() time.Duration {
	if a.TokenTTLMinutes <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HOTEL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HOTEL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HOTEL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HOTEL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HOTEL_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	BookingWindow     time.Duration `envconfig:"HOTEL_RATE_LIMIT_BOOKING_WINDOW" default:"10m"`
	BookingIPLimit    int           `envconfig:"HOTEL_RATE_LIMIT_BOOKING_IP_LIMIT" default:"10"`
	BookingEmailLimit int           `envconfig:"HOTEL_RATE_LIMIT_BOOKING_EMAIL_LIMIT" default:"3"`
	LoginWindow       time.Duration `envconfig:"HOTEL_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit      int           `envconfig:"HOTEL_RATE_LIMIT_LOGIN_IP_LIMIT" default:"5"`
}

type InventoryConfig struct {
	// BulkConcurrency bounds how many dates a bulk update writes at once.
	BulkConcurrency int `envconfig:"HOTEL_INVENTORY_BULK_CONCURRENCY" default:"8"`
	MaxRangeDays    int `envconfig:"HOTEL_INVENTORY_MAX_RANGE_DAYS" default:"366"`
}

type NotificationsConfig struct {
	HotelEmail        string        `envconfig:"HOTEL_NOTIFICATIONS_HOTEL_EMAIL" default:"selvamresidency@gmail.com"`
	HotelName         string        `envconfig:"HOTEL_NOTIFICATIONS_HOTEL_NAME" default:"Selvam Residency"`
	Queue             bool          `envconfig:"HOTEL_NOTIFICATIONS_QUEUE" default:"true"`
	DispatchBatchSize int           `envconfig:"HOTEL_NOTIFICATIONS_DISPATCH_BATCH_SIZE" default:"50"`
	MaxAttempts       int           `envconfig:"HOTEL_NOTIFICATIONS_MAX_ATTEMPTS" default:"5"`
	RetentionDays     int           `envconfig:"HOTEL_NOTIFICATIONS_RETENTION_DAYS" default:"30"`
	PendingReminder   time.Duration `envconfig:"HOTEL_NOTIFICATIONS_PENDING_REMINDER_AGE" default:"24h"`
}

type SendgridConfig struct {
	APIKey    string `envconfig:"HOTEL_SENDGRID_API_KEY"`
	FromEmail string `envconfig:"HOTEL_SENDGRID_FROM_EMAIL" default:"noreply@selvamresidency.com"`
	FromName  string `envconfig:"HOTEL_SENDGRID_FROM_NAME" default:"Selvam Residency"`
	Sandbox   bool   `envconfig:"HOTEL_SENDGRID_SANDBOX" default:"false"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"HOTEL_CRON_INTERVAL" default:"1m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HOTEL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HOTEL_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range splitDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
