package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoreScylla = "scylla"
	StoreMemory = "memory"
)

// Config holds runtime configuration read from the environment.
type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	HTTPPort    string `envconfig:"HTTP_PORT" default:"8000"`
	GRPCPort    string `envconfig:"GRPC_PORT" default:"50051"`
	APIBasePath string `envconfig:"API_BASE_PATH" default:"/api"`
	CORSOrigin  string `envconfig:"CORS_ORIGIN" default:"*"`

	Store string `envconfig:"STORE" default:"scylla"`

	ScyllaHosts    []string `envconfig:"SCYLLA_HOSTS" default:"localhost"`
	ScyllaKeyspace string   `envconfig:"SCYLLA_KEYSPACE" default:"usermgr"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     string `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	CacheEnabled  bool          `envconfig:"CACHE_ENABLED" default:"true"`
	CacheLocalTTL time.Duration `envconfig:"CACHE_LOCAL_TTL" default:"1m"`
	CacheRedisTTL time.Duration `envconfig:"CACHE_REDIS_TTL" default:"10m"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case StoreScylla:
		if len(c.ScyllaHosts) == 0 {
			return fmt.Errorf("config: SCYLLA_HOSTS must name at least one host")
		}
		if c.ScyllaKeyspace == "" {
			return fmt.Errorf("config: SCYLLA_KEYSPACE must be set")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown STORE %q (want %q or %q)", c.Store, StoreScylla, StoreMemory)
	}
	if !strings.HasPrefix(c.APIBasePath, "/") {
		c.APIBasePath = "/" + c.APIBasePath
	}
	c.APIBasePath = strings.TrimRight(c.APIBasePath, "/")
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// RedisRequired reports whether a Redis connection is needed at startup.
// Only the Scylla store uses Redis, for ids and the shared L2 cache. The
// memory store lives and dies with the process, so its cache stays local.
func (c *Config) RedisRequired() bool {
	return c.Store == StoreScylla
}
