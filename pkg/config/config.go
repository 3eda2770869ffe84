package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "akera"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "AKERA_APP_ENV"
	EnvDBDSN  = "AKERA_DB_DSN"
	EnvDBHost = "AKERA_DB_HOST"
	EnvDBUser = "AKERA_DB_USER"
	EnvDBName = "AKERA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Gold         GoldConfig
	Idempotency  IdempotencyConfig
	FeatureFlags FeatureFlagsConfig
	Outbox       OutboxConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
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
	Env          string `envconfig:"AKERA_APP_ENV" required:"true"`
	Port         string `envconfig:"AKERA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"AKERA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AKERA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AKERA_DB_DSN"`
	Driver string `envconfig:"AKERA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AKERA_DB_HOST"`
	LegacyPort     int    `envconfig:"AKERA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AKERA_DB_USER"`
	LegacyPassword string `envconfig:"AKERA_DB_PASSWORD"`
	LegacyName     string `envconfig:"AKERA_DB_NAME"`
	LegacySSLMode  string `envconfig:"AKERA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AKERA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AKERA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AKERA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AKERA_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	TxMaxAttempts    int           `envconfig:"AKERA_DB_TX_MAX_ATTEMPTS" default:"3"`
	TxInitialBackoff time.Duration `envconfig:"AKERA_DB_TX_INITIAL_BACKOFF" default:"100ms"`
	TxCommitTimeout  time.Duration `envconfig:"AKERA_DB_TX_COMMIT_TIMEOUT" default:"5s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AKERA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AKERA_REDIS_ADDR"`
	Password     string        `envconfig:"AKERA_REDIS_PASSWORD"`
	DB           int           `envconfig:"AKERA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AKERA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AKERA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AKERA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AKERA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AKERA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"AKERA_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"AKERA_JWT_ISSUER" required:"true"`
}

// GoldConfig carries the business defaults for valuation and shipping.
type GoldConfig struct {
	// TransportRate is the default per-gram export fee applied when a
	// shipment does not specify its own rate.
	TransportRate string `envconfig:"AKERA_GOLD_TRANSPORT_RATE" default:"150"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"AKERA_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AKERA_AUTO_MIGRATE" default:"false"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"AKERA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"AKERA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"AKERA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"AKERA_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"AKERA_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	LedgerTopic        string `envconfig:"AKERA_PUBSUB_LEDGER_TOPIC" default:"akera-ledger-events"`
	LedgerSubscription string `envconfig:"AKERA_PUBSUB_LEDGER_SUBSCRIPTION"`
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
