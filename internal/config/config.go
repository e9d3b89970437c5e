package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Library   LibraryConfig   `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string        `mapstructure:"REDIS_HOST"`
	Port     string        `mapstructure:"REDIS_PORT"`
	Password string        `mapstructure:"REDIS_PASSWORD"`
	DB       int           `mapstructure:"REDIS_DB"`
	FineTTL  time.Duration `mapstructure:"FINE_CACHE_TTL"`
}

type SchedulerConfig struct {
	OverdueReportSchedule string `mapstructure:"OVERDUE_REPORT_SCHEDULE"`
	Timezone              string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

// LibraryConfig carries the lending rules.
type LibraryConfig struct {
	// MaxBorrowBook caps open loans per user and items per borrow/return request.
	MaxBorrowBook int `mapstructure:"MAX_BORROW_BOOK"`
	// MaxDayBorrowBook is the grace period in days before fines accrue.
	MaxDayBorrowBook int `mapstructure:"MAX_DAY_BORROW_BOOK"`
	// FinePerDay is charged per late day, in the currency's minor unit.
	FinePerDay int64 `mapstructure:"FINE_LATE_RETURN_BOOK_PER_DAY"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var defaults = map[string]any{
	"SERVER_PORT":                   "8080",
	"SERVER_HOST":                   "0.0.0.0",
	"ENV":                           "development",
	"SERVER_READ_TIMEOUT":           "10s",
	"SERVER_WRITE_TIMEOUT":          "10s",
	"DATABASE_URL":                  "",
	"DB_MAX_OPEN_CONNS":             25,
	"DB_MAX_IDLE_CONNS":             5,
	"DB_CONN_MAX_LIFETIME":          "1h",
	"REDIS_HOST":                    "localhost",
	"REDIS_PORT":                    "6379",
	"REDIS_PASSWORD":                "",
	"REDIS_DB":                      0,
	"FINE_CACHE_TTL":                "5m",
	"OVERDUE_REPORT_SCHEDULE":       "0 0 0 * * *",
	"SCHEDULER_TIMEZONE":            "UTC",
	"LOG_LEVEL":                     "info",
	"LOG_FORMAT":                    "",
	"MAX_BORROW_BOOK":               4,
	"MAX_DAY_BORROW_BOOK":           7,
	"FINE_LATE_RETURN_BOOK_PER_DAY": 1000,
	"HEALTH_CHECK_TIMEOUT":          "5s",
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Don't fail if .env file doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Library.MaxBorrowBook <= 0 {
		return fmt.Errorf("MAX_BORROW_BOOK must be greater than 0")
	}

	if c.Library.MaxDayBorrowBook < 0 {
		return fmt.Errorf("MAX_DAY_BORROW_BOOK must not be negative")
	}

	if c.Library.FinePerDay < 0 {
		return fmt.Errorf("FINE_LATE_RETURN_BOOK_PER_DAY must not be negative")
	}

	if c.Redis.FineTTL <= 0 {
		return fmt.Errorf("FINE_CACHE_TTL must be a positive duration")
	}

	if c.Health.Timeout <= 0 {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a positive duration")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid location: %w", err)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Scheduler.OverdueReportSchedule); err != nil {
		return fmt.Errorf("OVERDUE_REPORT_SCHEDULE must be a valid cron expression: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// LogFormat returns LOG_FORMAT when set, otherwise console output in
// development and JSON everywhere else
func (c *Config) LogFormat() string {
	if c.Logging.Format != "" {
		return c.Logging.Format
	}
	if c.IsDevelopment() {
		return "console"
	}
	return "json"
}

// Addr returns the host:port the HTTP server listens on
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// RedisAddr returns the host:port of the Redis server
func (c *Config) RedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}

// SchedulerLocation returns the scheduler timezone, falling back to UTC
func (c *Config) SchedulerLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
