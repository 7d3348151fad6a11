package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"dispatch_user"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"dispatch_pass"`
	DBName     string `env:"DB_NAME" envDefault:"dispatch_db"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	ServerPort string        `env:"SERVER_PORT" envDefault:"8080"`
	JWTSecret  string        `env:"JWT_SECRET" envDefault:"supersecretkey"`
	JWTExpiry  time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	AccessModelPath  string `env:"ACCESS_MODEL_PATH" envDefault:"config/access/model.conf"`
	AccessPolicyPath string `env:"ACCESS_POLICY_PATH" envDefault:"config/access/policy.csv"`

	// AutoMigrate applies pending migrations on serve.
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	AllowedOrigins []string `env:"WS_ALLOWED_ORIGINS" envSeparator:","`
	MetricsPath    string   `env:"METRICS_PATH" envDefault:"/metrics"`

	RateLimit RateLimitOptions `envPrefix:"RATE_LIMIT_"`
}

// RateLimitOptions configures the per-user limiter on mutating endpoints.
type RateLimitOptions struct {
	Enabled  bool          `env:"ENABLED" envDefault:"true"`
	Requests int64         `env:"REQUESTS" envDefault:"60"`
	Period   time.Duration `env:"PERIOD" envDefault:"1m"`
	Storage  string        `env:"STORAGE" envDefault:"memory"`
	RedisURL string        `env:"REDIS_URL"`
}

const (
	RateLimitStorageMemory = "memory"
	RateLimitStorageRedis  = "redis"
)

func (o RateLimitOptions) Validate() error {
	if !o.Enabled {
		return nil
	}
	if o.Requests <= 0 {
		return errors.New("RATE_LIMIT_REQUESTS must be positive")
	}
	if o.Period <= 0 {
		return errors.New("RATE_LIMIT_PERIOD must be positive")
	}
	switch o.Storage {
	case RateLimitStorageMemory:
	case RateLimitStorageRedis:
		if o.RedisURL == "" {
			return errors.New("RATE_LIMIT_REDIS_URL is required for redis storage")
		}
	default:
		return errors.Errorf("unknown RATE_LIMIT_STORAGE %q", o.Storage)
	}
	return nil
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("⚠️  Could not read .env file")
	} else if err != nil {
		logrus.Info("⚠️  No .env file found, using system environment variables")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.JWTExpiry <= 0 {
		return errors.New("JWT_EXPIRY must be positive")
	}
	return errors.Wrap(c.RateLimit.Validate(), "invalid rate limit config")
}

// DSN is the gorm connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// DatabaseURL is the URL form used by the migrator.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if c.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.WithField("level", c.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
