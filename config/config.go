// Package config builds the configuration value handed to the
// repository factory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"

	DefaultVocabulary = "http://schedule.tidbyt.dev/vocab#"
)

type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	TripleStore TripleStoreConfig `yaml:"triplestore"`
	Cache       CacheConfig       `yaml:"cache"`
}

// Relational backend. For sqlite, DSN is a directory holding the
// database file, or blank for an in-memory database.
type DatabaseConfig struct {
	Driver       string        `yaml:"driver" validate:"oneof=postgres sqlite"`
	DSN          string        `yaml:"dsn"`
	QueryTimeout time.Duration `yaml:"query_timeout" validate:"gt=0"`
}

// SPARQL endpoint. When enabled, it serves lookups instead of the
// relational backend.
type TripleStoreConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Endpoint   string        `yaml:"endpoint" validate:"omitempty,url"`
	Vocabulary string        `yaml:"vocabulary" validate:"omitempty,url"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
}

type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Driver   string        `yaml:"driver" validate:"oneof=redis memory"`
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port" validate:"gte=0,lte=65535"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"gte=0"`
	TTL      time.Duration `yaml:"ttl" validate:"gt=0"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0,lte=2s"`
}

func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:       DriverSQLite,
			QueryTimeout: 5 * time.Second,
		},
		TripleStore: TripleStoreConfig{
			Endpoint:   "http://localhost:3030/schedule/query",
			Vocabulary: DefaultVocabulary,
			Timeout:    10 * time.Second,
		},
		Cache: CacheConfig{
			Driver:  CacheDriverRedis,
			Host:    "localhost",
			Port:    6379,
			TTL:     60 * time.Second,
			Timeout: 2 * time.Second,
		},
	}
}

// Timeout of whichever backend serves lookups.
func (c Config) BackendTimeout() time.Duration {
	if c.TripleStore.Enabled {
		return c.TripleStore.Timeout
	}
	return c.Database.QueryTimeout
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.TripleStore.Enabled && c.TripleStore.Endpoint == "" {
		return fmt.Errorf("invalid config: triplestore.endpoint is required when triplestore is enabled")
	}
	if !c.TripleStore.Enabled && c.Database.Driver == DriverPostgres && c.Database.DSN == "" {
		return fmt.Errorf("invalid config: database.dsn is required for postgres")
	}
	if c.Cache.Enabled {
		if c.Cache.Driver == CacheDriverRedis && (c.Cache.Host == "" || c.Cache.Port == 0) {
			return fmt.Errorf("invalid config: cache.host and cache.port are required for redis")
		}
		if c.Cache.Timeout >= c.BackendTimeout() {
			return fmt.Errorf(
				"invalid config: cache.timeout (%s) must be shorter than the backend timeout (%s)",
				c.Cache.Timeout, c.BackendTimeout(),
			)
		}
	}

	return nil
}

// Builds configuration from defaults, then the YAML file at path
// (if not blank), then the process environment. Variables in the
// given .env files (".env" if none) are added to the environment
// first, without overriding anything already set.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Database.Driver = getEnv("SCHEDULE_DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("SCHEDULE_DB_DSN", cfg.Database.DSN)
	cfg.Database.QueryTimeout = getDurationEnv("SCHEDULE_DB_QUERY_TIMEOUT", cfg.Database.QueryTimeout)

	cfg.TripleStore.Enabled = getBoolEnv("SCHEDULE_FUSEKI_ENABLED", cfg.TripleStore.Enabled)
	cfg.TripleStore.Endpoint = getEnv("SCHEDULE_FUSEKI_ENDPOINT", cfg.TripleStore.Endpoint)
	cfg.TripleStore.Vocabulary = getEnv("SCHEDULE_FUSEKI_VOCABULARY", cfg.TripleStore.Vocabulary)
	cfg.TripleStore.Timeout = getDurationEnv("SCHEDULE_FUSEKI_TIMEOUT", cfg.TripleStore.Timeout)

	cfg.Cache.Enabled = getBoolEnv("SCHEDULE_CACHE_ENABLED", cfg.Cache.Enabled)
	cfg.Cache.Driver = getEnv("SCHEDULE_CACHE_DRIVER", cfg.Cache.Driver)
	cfg.Cache.Host = getEnv("SCHEDULE_REDIS_HOST", cfg.Cache.Host)
	cfg.Cache.Port = getIntEnv("SCHEDULE_REDIS_PORT", cfg.Cache.Port)
	cfg.Cache.Password = getEnv("SCHEDULE_REDIS_PASSWORD", cfg.Cache.Password)
	cfg.Cache.DB = getIntEnv("SCHEDULE_REDIS_DB", cfg.Cache.DB)
	cfg.Cache.TTL = getDurationEnv("SCHEDULE_CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.Timeout = getDurationEnv("SCHEDULE_CACHE_TIMEOUT", cfg.Cache.Timeout)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		log.Printf("ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

// Accepts either a Go duration ("90s") or a number of seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	log.Printf("ignoring invalid %s=%q", key, value)
	return defaultValue
}
