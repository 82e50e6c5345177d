package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Stripe       StripeConfig
	Sendgrid     SendgridConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Shipments    ShipmentsConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MYPACK_APP_ENV" required:"true"`
	Port         string `envconfig:"MYPACK_APP_PORT" required:"true"`
	PublicURL    string `envconfig:"MYPACK_APP_PUBLIC_URL" default:"https://mypackmx.com"`
	LogLevel     string `envconfig:"MYPACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MYPACK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MYPACK_DB_DSN"`
	Driver string `envconfig:"MYPACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MYPACK_DB_HOST"`
	LegacyPort     int    `envconfig:"MYPACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MYPACK_DB_USER"`
	LegacyPassword string `envconfig:"MYPACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"MYPACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"MYPACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MYPACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MYPACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MYPACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MYPACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MYPACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MYPACK_REDIS_ADDR"`
	Password     string        `envconfig:"MYPACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"MYPACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MYPACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MYPACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MYPACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MYPACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MYPACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MYPACK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MYPACK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"MYPACK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"MYPACK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MYPACK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MYPACK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MYPACK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MYPACK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MYPACK_ARGON_KEY_LEN" default:"32"`
}

type StripeConfig struct {
	APIKey string `envconfig:"MYPACK_STRIPE_API_KEY"`
	Secret string `envconfig:"MYPACK_STRIPE_SECRET"`
	Env    string `envconfig:"MYPACK_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SendgridConfig struct {
	APIKey      string `envconfig:"MYPACK_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"MYPACK_SENDGRID_FROM_EMAIL" default:"guias@mypackmx.com"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MYPACK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MYPACK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MYPACK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"MYPACK_GCS_BUCKET_NAME" default:"mypack-shipment-guides"`
	DownloadURLExpiry time.Duration `envconfig:"MYPACK_GCS_DOWNLOAD_URL_EXPIRY" default:"168h"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"MYPACK_PUBSUB_NOTIFICATION_TOPIC" default:"mpm-notification-events"`
	NotificationSubscription string `envconfig:"MYPACK_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"mpm-notification-events-worker"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MYPACK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MYPACK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MYPACK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type ShipmentsConfig struct {
	// UnpaidTTL is how long a quoted shipment may sit unpaid before the
	// cron worker expires it.
	UnpaidTTL    time.Duration `envconfig:"MYPACK_SHIPMENTS_UNPAID_TTL" default:"72h"`
	CronInterval time.Duration `envconfig:"MYPACK_SHIPMENTS_CRON_INTERVAL" default:"1h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MYPACK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
