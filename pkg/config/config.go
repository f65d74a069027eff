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
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	SMTP          SMTPConfig
	Contact       ContactConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"SWAYAA_APP_ENV" required:"true"`
	Port         string `envconfig:"SWAYAA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SWAYAA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SWAYAA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SWAYAA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SWAYAA_DB_DSN"`
	Driver string `envconfig:"SWAYAA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SWAYAA_DB_HOST"`
	LegacyPort     int    `envconfig:"SWAYAA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SWAYAA_DB_USER"`
	LegacyPassword string `envconfig:"SWAYAA_DB_PASSWORD"`
	LegacyName     string `envconfig:"SWAYAA_DB_NAME"`
	LegacySSLMode  string `envconfig:"SWAYAA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SWAYAA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SWAYAA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SWAYAA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SWAYAA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SWAYAA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SWAYAA_REDIS_ADDR"`
	Password     string        `envconfig:"SWAYAA_REDIS_PASSWORD"`
	DB           int           `envconfig:"SWAYAA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SWAYAA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SWAYAA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SWAYAA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SWAYAA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SWAYAA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SWAYAA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SWAYAA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SWAYAA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SWAYAA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SWAYAA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SWAYAA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SWAYAA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SWAYAA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SWAYAA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SWAYAA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SWAYAA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SWAYAA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SWAYAA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SWAYAA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SWAYAA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SWAYAA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SWAYAA_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"SWAYAA_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SWAYAA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SWAYAA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SWAYAA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"SWAYAA_PUBSUB_NOTIFICATION_TOPIC" default:"swayaa-notification-events"`
	NotificationSubscription string `envconfig:"SWAYAA_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type SMTPConfig struct {
	Host        string `envconfig:"SWAYAA_SMTP_HOST"`
	Port        int    `envconfig:"SWAYAA_SMTP_PORT" default:"587"`
	Username    string `envconfig:"SWAYAA_SMTP_USERNAME"`
	Password    string `envconfig:"SWAYAA_SMTP_PASSWORD"`
	DefaultFrom string `envconfig:"SWAYAA_SMTP_FROM_EMAIL"`
}

type ContactConfig struct {
	InboxEmail string `envconfig:"SWAYAA_CONTACT_INBOX_EMAIL"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SWAYAA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SWAYAA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SWAYAA_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
