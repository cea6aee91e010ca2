package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Scheduler SchedulerConfig
	Views     ViewsConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"auctionhall-engine"`
	Environment string `envconfig:"APP_ENV" default:"development"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"9000"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"5s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:""`
	Name     string `envconfig:"DB_NAME" default:"auctionhall"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// SchedulerConfig holds lifecycle scheduler settings.
type SchedulerConfig struct {
	SweepInterval time.Duration `envconfig:"SCHED_SWEEP_INTERVAL" default:"30s"`
	LockTimeout   time.Duration `envconfig:"SCHED_LOCK_TIMEOUT" default:"3s"`
}

// ViewsConfig holds view-counter settings. Backend "memory" keeps counts in
// process; "redis" buffers them in Redis and flushes on an interval.
type ViewsConfig struct {
	Backend       string        `envconfig:"VIEWS_BACKEND" default:"memory"`
	FlushInterval time.Duration `envconfig:"VIEWS_FLUSH_INTERVAL" default:"1m"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
