package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "TYCOON"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv   = "TYCOON_APP_ENV"
	EnvPort     = "TYCOON_APP_PORT"
	EnvDBDSN    = "TYCOON_DB_DSN"
	EnvDBHost   = "TYCOON_DB_HOST"
	EnvDBUser   = "TYCOON_DB_USER"
	EnvDBName   = "TYCOON_DB_NAME"
	EnvRedisURL = "TYCOON_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Sim          SimConfig
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
	Env          string `envconfig:"TYCOON_APP_ENV" required:"true"`
	Port         string `envconfig:"TYCOON_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TYCOON_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"TYCOON_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"TYCOON_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"TYCOON_DB_DSN"`

	LegacyHost     string `envconfig:"TYCOON_DB_HOST"`
	LegacyPort     int    `envconfig:"TYCOON_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TYCOON_DB_USER"`
	LegacyPassword string `envconfig:"TYCOON_DB_PASSWORD"`
	LegacyName     string `envconfig:"TYCOON_DB_NAME"`
	LegacySSLMode  string `envconfig:"TYCOON_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TYCOON_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TYCOON_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TYCOON_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TYCOON_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	// URL is optional: without it the report cache is disabled.
	URL          string        `envconfig:"TYCOON_REDIS_URL"`
	Password     string        `envconfig:"TYCOON_REDIS_PASSWORD"`
	DB           int           `envconfig:"TYCOON_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TYCOON_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TYCOON_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TYCOON_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TYCOON_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TYCOON_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SimConfig tunes the simulation engine.
type SimConfig struct {
	// Seed fixes the RNG for deterministic replays; 0 seeds from the clock.
	Seed         int64   `envconfig:"TYCOON_SIM_SEED" default:"0"`
	BotCount     int     `envconfig:"TYCOON_SIM_BOT_COUNT" default:"3"`
	StartingCash float64 `envconfig:"TYCOON_SIM_STARTING_CASH" default:"100000"`
	BaseDemand   float64 `envconfig:"TYCOON_SIM_BASE_DEMAND" default:"1000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TYCOON_AUTO_MIGRATE" default:"false"`
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
