// config/config.go - Application configuration
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"disciplinebaby/models"
)

// Recognised driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverNATS     = "nats"
)

type Config struct {
	Port   string
	AppEnv string
	UserID string

	Database Database
	KV       KV
	LocalDir string

	LogLevel string
	LogFile  string

	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
	ShutdownTimeout      time.Duration
}

type Database struct {
	Driver string
	URL    string
	// Discrete connection parameters, used when URL is empty
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	// Path is the sqlite file for DriverSQLite
	Path string
}

// Configured reports whether enough is set to attempt a connection.
func (d Database) Configured() bool {
	if d.Driver == DriverSQLite {
		return d.Path != ""
	}
	return d.URL != "" || d.Host != ""
}

// DSN returns the Postgres connection string, built from the discrete
// parameters when no URL was given.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type KV struct {
	Driver    string
	RedisAddr string
	NATSURL   string
	Bucket    string
}

func (k KV) Configured() bool {
	switch k.Driver {
	case DriverNATS:
		return k.NATSURL != ""
	default:
		return k.RedisAddr != ""
	}
}

func (c Config) Production() bool {
	return c.AppEnv == "production"
}

// Load reads .env (if present), an optional config file named by
// DISCIPLINE_CONFIG, and the process environment, in increasing priority.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("USER_ID", models.DefaultUserID)

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "discipline")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "")

	v.SetDefault("KV_DRIVER", DriverRedis)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("KV_BUCKET", "discipline")

	v.SetDefault("LOCAL_DIR", defaultLocalDir())
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")

	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_MS", 900000)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
}

func defaultLocalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".discipline"
	}
	return filepath.Join(home, ".discipline")
}

// FromViper builds a Config from v, reading DISCIPLINE_CONFIG first when set.
func FromViper(v *viper.Viper) (Config, error) {
	if file := v.GetString("DISCIPLINE_CONFIG"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := Config{
		Port:   v.GetString("PORT"),
		AppEnv: v.GetString("APP_ENV"),
		UserID: v.GetString("USER_ID"),
		Database: Database{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			Path:     v.GetString("DB_PATH"),
		},
		KV: KV{
			Driver:    strings.ToLower(v.GetString("KV_DRIVER")),
			RedisAddr: v.GetString("REDIS_ADDR"),
			NATSURL:   v.GetString("NATS_URL"),
			Bucket:    v.GetString("KV_BUCKET"),
		},
		LocalDir:             v.GetString("LOCAL_DIR"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFile:              v.GetString("LOG_FILE"),
		RateLimitMaxRequests: v.GetInt("RATE_LIMIT_MAX_REQUESTS"),
		RateLimitWindow:      time.Duration(v.GetInt64("RATE_LIMIT_WINDOW_MS")) * time.Millisecond,
		ShutdownTimeout:      v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
	return cfg, cfg.Validate()
}

var ErrInvalid = errors.New("invalid configuration")

func (c Config) Validate() error {
	var problems []string
	if c.UserID == "" {
		problems = append(problems, "USER_ID must not be empty")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		problems = append(problems, fmt.Sprintf("DB_DRIVER %q is not one of postgres, sqlite", c.Database.Driver))
	}
	switch c.KV.Driver {
	case DriverRedis, DriverNATS:
	default:
		problems = append(problems, fmt.Sprintf("KV_DRIVER %q is not one of redis, nats", c.KV.Driver))
	}
	if c.RateLimitMaxRequests < 1 {
		problems = append(problems, "RATE_LIMIT_MAX_REQUESTS must be positive")
	}
	if c.RateLimitWindow <= 0 {
		problems = append(problems, "RATE_LIMIT_WINDOW_MS must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		problems = append(problems, "SHUTDOWN_TIMEOUT must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
