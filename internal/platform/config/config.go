package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config captures all process-level configuration.
type Config struct {
	Server   Server
	Dispatch Dispatch
	Audit    Audit
	Redis    RedisConfig

	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`
	DatabaseURL string `env:"DATABASE_URL"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr               string        `env:"ADDR" envDefault:":8080"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Dispatch tunes the verification engine.
type Dispatch struct {
	Timezone      string        `env:"DISPATCH_TIMEZONE" envDefault:"Asia/Kolkata"`
	LookupTimeout time.Duration `env:"DISPATCH_LOOKUP_TIMEOUT" envDefault:"3s"`
	BatchLimit    int           `env:"DISPATCH_BATCH_LIMIT" envDefault:"50"`

	location *time.Location
}

// Location returns the parsed timezone. Valid after FromEnv succeeds.
func (d Dispatch) Location() *time.Location {
	if d.location == nil {
		return time.UTC
	}
	return d.location
}

// Audit configures the gate log publisher and its optional Kafka mirror.
type Audit struct {
	QueueSize    int           `env:"AUDIT_QUEUE_SIZE" envDefault:"1024"`
	Workers      int           `env:"AUDIT_WORKERS" envDefault:"2"`
	WriteTimeout time.Duration `env:"AUDIT_WRITE_TIMEOUT" envDefault:"5s"`
	KafkaBrokers []string      `env:"AUDIT_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string        `env:"AUDIT_KAFKA_TOPIC" envDefault:"gatezero.gate-logs"`
}

// RedisConfig configures the fleet read-through cache. An empty URL disables it.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"2s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"500ms"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"500ms"`
	CacheTTL     time.Duration `env:"FLEET_CACHE_TTL" envDefault:"30s"`
}

// FromEnv parses and validates configuration from the environment.
func FromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	loc, err := time.LoadLocation(c.Dispatch.Timezone)
	if err != nil {
		return fmt.Errorf("invalid DISPATCH_TIMEZONE %q: %w", c.Dispatch.Timezone, err)
	}
	c.Dispatch.location = loc

	if c.Dispatch.LookupTimeout <= 0 {
		return fmt.Errorf("DISPATCH_LOOKUP_TIMEOUT must be positive")
	}
	if c.Dispatch.BatchLimit <= 0 {
		return fmt.Errorf("DISPATCH_BATCH_LIMIT must be positive")
	}
	if c.Audit.QueueSize <= 0 || c.Audit.Workers <= 0 {
		return fmt.Errorf("AUDIT_QUEUE_SIZE and AUDIT_WORKERS must be positive")
	}
	if c.Audit.WriteTimeout <= 0 {
		return fmt.Errorf("AUDIT_WRITE_TIMEOUT must be positive")
	}
	return nil
}
