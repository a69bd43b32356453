package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "OLLO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "OLLO_DB_DSN"
	EnvDBHost = "OLLO_DB_HOST"
	EnvDBUser = "OLLO_DB_USER"
	EnvDBName = "OLLO_DB_NAME"

	EnvMollieAPIKey = "OLLO_MOLLIE_API_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App     AppConfig
	Service ServiceConfig
	DB      DBConfig
	Redis   RedisConfig
	Mollie  MollieConfig
	Billing BillingConfig
	Cron    CronConfig
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
	Env          string `envconfig:"OLLO_APP_ENV" required:"true"`
	Port         string `envconfig:"OLLO_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"OLLO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OLLO_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"OLLO_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"OLLO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"OLLO_DB_DSN"`
	Driver string `envconfig:"OLLO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OLLO_DB_HOST"`
	LegacyPort     int    `envconfig:"OLLO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OLLO_DB_USER"`
	LegacyPassword string `envconfig:"OLLO_DB_PASSWORD"`
	LegacyName     string `envconfig:"OLLO_DB_NAME"`
	LegacySSLMode  string `envconfig:"OLLO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OLLO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OLLO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OLLO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OLLO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OLLO_REDIS_URL" required:"true"`
	Password     string        `envconfig:"OLLO_REDIS_PASSWORD"`
	DB           int           `envconfig:"OLLO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OLLO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OLLO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OLLO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OLLO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OLLO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// MollieConfig carries the recurring-billing provider credentials. The API key is
// re-read on every gateway call so a rotated key takes effect without a restart.
type MollieConfig struct {
	APIKey      string        `envconfig:"OLLO_MOLLIE_API_KEY"`
	BaseURL     string        `envconfig:"OLLO_MOLLIE_BASE_URL" default:"https://api.mollie.com/v2"`
	RedirectURL string        `envconfig:"OLLO_MOLLIE_REDIRECT_URL" default:"https://www.ollo.de"`
	WebhookURL  string        `envconfig:"OLLO_MOLLIE_WEBHOOK_URL" default:"https://webhook-odoo.ollo.de"`
	Timeout     time.Duration `envconfig:"OLLO_MOLLIE_TIMEOUT" default:"30s"`
}

type BillingConfig struct {
	BufferDays      int    `envconfig:"OLLO_BILLING_BUFFER_DAYS" default:"0"`
	DefaultCurrency string `envconfig:"OLLO_BILLING_CURRENCY" default:"EUR"`
	DefaultLocale   string `envconfig:"OLLO_BILLING_LOCALE" default:"en_US"`
}

type CronConfig struct {
	Interval         time.Duration `envconfig:"OLLO_CRON_INTERVAL" default:"24h"`
	ReconcileLimit   int           `envconfig:"OLLO_CRON_RECONCILE_LIMIT" default:"250"`
	PaymentListLimit int           `envconfig:"OLLO_CRON_PAYMENT_LIST_LIMIT" default:"50"`
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
