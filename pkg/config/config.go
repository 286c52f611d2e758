package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`

	GRPCPort int    `yaml:"grpc_port"`
	HTTPPort int    `yaml:"http_port"`
	CartAddr string `yaml:"cart_addr"`

	Storage StorageConfig `yaml:"storage"`
	Events  EventsConfig  `yaml:"events"`
	Summary SummaryConfig `yaml:"summary"`
}

type StorageConfig struct {
	// Driver is one of memory, redis or sqlite.
	Driver  string `yaml:"driver"`
	Key     string `yaml:"key"`
	Breaker bool   `yaml:"breaker"`

	RedisAddr      string        `yaml:"redis_addr"`
	RedisPassword  string        `yaml:"redis_password"`
	RedisDB        int           `yaml:"redis_db"`
	RedisSentinels []string      `yaml:"redis_sentinels"`
	RedisMaster    string        `yaml:"redis_master"`
	RedisTTL       time.Duration `yaml:"redis_ttl"`

	SQLitePath string `yaml:"sqlite_path"`
}

type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
}

type SummaryConfig struct {
	Locale    string `yaml:"locale"`
	Currency  string `yaml:"currency"`
	UnitLabel string `yaml:"unit_label"`
}

func defaults() Config {
	return Config{
		AppEnv:   "dev",
		LogLevel: "info",
		HTTPPort: 8080,
		GRPCPort: 8081,
		CartAddr: "localhost:8081",
		Storage: StorageConfig{
			Driver:     "memory",
			Key:        "@goMarketplace:products",
			RedisAddr:  "localhost:6379",
			SQLitePath: "cart.db",
		},
		Events: EventsConfig{
			Exchange: "cart.events",
		},
		Summary: SummaryConfig{
			Locale:    "pt-BR",
			Currency:  "BRL",
			UnitLabel: "itens",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = getEnvInt("GRPC_PORT", cfg.GRPCPort)
	cfg.CartAddr = getEnv("CART_ADDR", cfg.CartAddr)

	cfg.Storage.Driver = strings.ToLower(getEnv("STORAGE_DRIVER", cfg.Storage.Driver))
	cfg.Storage.Key = getEnv("STORAGE_KEY", cfg.Storage.Key)
	cfg.Storage.Breaker = getEnvBool("STORAGE_BREAKER", cfg.Storage.Breaker)
	cfg.Storage.RedisAddr = getEnv("REDIS_ADDR", cfg.Storage.RedisAddr)
	cfg.Storage.RedisPassword = getEnv("REDIS_PASSWORD", cfg.Storage.RedisPassword)
	cfg.Storage.RedisDB = getEnvInt("REDIS_DB", cfg.Storage.RedisDB)
	cfg.Storage.RedisMaster = getEnv("REDIS_MASTER_NAME", cfg.Storage.RedisMaster)
	cfg.Storage.RedisTTL = getEnvDuration("REDIS_TTL", cfg.Storage.RedisTTL)
	if v := os.Getenv("REDIS_SENTINEL_ADDRS"); v != "" {
		cfg.Storage.RedisSentinels = strings.Split(v, ",")
	}
	cfg.Storage.SQLitePath = getEnv("SQLITE_PATH", cfg.Storage.SQLitePath)

	cfg.Events.AMQPURL = getEnv("AMQP_URL", cfg.Events.AMQPURL)
	cfg.Events.Exchange = getEnv("AMQP_EXCHANGE", cfg.Events.Exchange)

	cfg.Summary.Locale = getEnv("SUMMARY_LOCALE", cfg.Summary.Locale)
	cfg.Summary.Currency = getEnv("SUMMARY_CURRENCY", cfg.Summary.Currency)
	cfg.Summary.UnitLabel = getEnv("SUMMARY_UNIT_LABEL", cfg.Summary.UnitLabel)

	switch cfg.Storage.Driver {
	case "memory", "redis", "sqlite":
	default:
		return Config{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
