package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	CMSDB        CMSDBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Reconcile    ReconcileConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.CMSDB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CLINICBRIDGE_APP_ENV" required:"true"`
	Port         string `envconfig:"CLINICBRIDGE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CLINICBRIDGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLINICBRIDGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CLINICBRIDGE_SERVICE_KIND" default:"api"`
}

// DBConfig targets the primary (modern inventory) Postgres store.
type DBConfig struct {
	DSN string `envconfig:"CLINICBRIDGE_DB_DSN"`

	Host     string `envconfig:"CLINICBRIDGE_DB_HOST"`
	Port     int    `envconfig:"CLINICBRIDGE_DB_PORT" default:"5432"`
	User     string `envconfig:"CLINICBRIDGE_DB_USER"`
	Password string `envconfig:"CLINICBRIDGE_DB_PASSWORD"`
	Name     string `envconfig:"CLINICBRIDGE_DB_NAME"`
	SSLMode  string `envconfig:"CLINICBRIDGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CLINICBRIDGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CLINICBRIDGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CLINICBRIDGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CLINICBRIDGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("primary db: DSN or host/user/name is required")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host, d.Port, d.Name, d.SSLMode,
	)
	return nil
}

// CMSDBConfig targets the legacy clinic-management-system MySQL store. The
// schema there is externally owned; this service never migrates it.
type CMSDBConfig struct {
	DSN string `envconfig:"CLINICBRIDGE_CMS_DB_DSN"`

	Host     string `envconfig:"CLINICBRIDGE_CMS_DB_HOST"`
	Port     int    `envconfig:"CLINICBRIDGE_CMS_DB_PORT" default:"3306"`
	User     string `envconfig:"CLINICBRIDGE_CMS_DB_USER"`
	Password string `envconfig:"CLINICBRIDGE_CMS_DB_PASSWORD"`
	Name     string `envconfig:"CLINICBRIDGE_CMS_DB_NAME"`

	MaxOpenConns int `envconfig:"CLINICBRIDGE_CMS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns int `envconfig:"CLINICBRIDGE_CMS_DB_MAX_IDLE_CONNS" default:"5"`
}

func (d *CMSDBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("cms db: DSN or host/user/name is required")
	}
	d.DSN = fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"CLINICBRIDGE_REDIS_URL"`
	Address      string        `envconfig:"CLINICBRIDGE_REDIS_ADDR"`
	Password     string        `envconfig:"CLINICBRIDGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CLINICBRIDGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CLINICBRIDGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLINICBRIDGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLINICBRIDGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLINICBRIDGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLINICBRIDGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CLINICBRIDGE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CLINICBRIDGE_JWT_ISSUER" default:"clinicbridge"`
	ExpirationMinutes int    `envconfig:"CLINICBRIDGE_JWT_EXPIRATION_MINUTES" default:"720"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CLINICBRIDGE_FEATURE_AUTO_MIGRATE" default:"false"`
}

// ReconcileConfig tunes the offline maintenance passes.
type ReconcileConfig struct {
	LockTTL       time.Duration `envconfig:"CLINICBRIDGE_RECONCILE_LOCK_TTL" default:"2h"`
	ProgressEvery int           `envconfig:"CLINICBRIDGE_RECONCILE_PROGRESS_EVERY" default:"100"`
}
