package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. STATS_STORAGE_METHOD
const EnvPrefix = "STATS_"

// ConfigFileEnv names the optional YAML config file
const ConfigFileEnv = "STATS_CONFIG"

// Config holds all configuration for the application
type Config struct {
	// Persistence
	StorageMethod string        `koanf:"storage_method"`
	InstanceName  string        `koanf:"instance_name"`
	DataDir       string        `koanf:"data_dir"`
	BackupCount   int           `koanf:"backup_count"`
	FlushPolicy   string        `koanf:"flush_policy"`
	FlushInterval time.Duration `koanf:"flush_interval"`

	// LoadRetryInterval paces load attempts after the backend was unreachable at startup
	LoadRetryInterval time.Duration `koanf:"load_retry_interval"`
	// PlayersFile holds known player names and Discord links.
	// Empty means <data_dir>/<instance_name>_players.json.
	PlayersFile       string        `koanf:"players_file"`

	// Relational database
	DBHost          string `koanf:"db_host"`
	DBPort          int    `koanf:"db_port"`
	DBUser          string `koanf:"db_user"`
	DBPassword      string `koanf:"db_password"`
	DBName          string `koanf:"db_name"`
	PostgresSSLMode string `koanf:"postgres_sslmode"`
	SQLitePath      string `koanf:"sqlite_path"`

	// Elasticsearch
	ESURL      string `koanf:"es_url"`
	ESUsername string `koanf:"es_username"`
	ESPassword string `koanf:"es_password"`
	ESIndex    string `koanf:"es_index"`

	// Ingestion
	MaxEventAmount int64 `koanf:"max_event_amount"`

	// HTTP API, empty disables it
	HTTPAddr string `koanf:"http_addr"`

	// Discord configuration, empty token disables the bot
	Token    string   `koanf:"discord_token"`
	AppID    string   `koanf:"app_id"`
	GuildID  string   `koanf:"guild_id"`
	AdminIDs []string `koanf:"admin_ids"`

	LogLevel string `koanf:"log_level"`

	// Environment
	Environment string `koanf:"environment"` // "development" or "production"
}

// New returns a Config with default values
func New() *Config {
	return &Config{
		StorageMethod:   "internal",
		InstanceName:    "GamblingStats",
		DataDir:         "./data",
		BackupCount:     5,
		FlushPolicy:     "immediate",
		FlushInterval:   600 * time.Second,
		DBHost:          "localhost",
		DBPort:          3306,
		DBUser:          "root",
		DBPassword:      "password",
		DBName:          "rust_gambling_stats",
		PostgresSSLMode: "disable",
		SQLitePath:      "./data/gamblingstats.db",
		ESURL:           "http://localhost:9200",
		ESIndex:         "gambling_stats",
		MaxEventAmount:  1_000_000_000,
		HTTPAddr:        ":8090",
		LogLevel:        "info",
		Environment:     "production",

		LoadRetryInterval: 30 * time.Second,
	}
}

// Load builds a Config by layering, lowest precedence first:
//  1. defaults (New)
//  2. a YAML file if STATS_CONFIG is set
//  3. environment variables with the STATS_ prefix, after loading .env
func Load(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Only return error if file exists but couldn't be loaded
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	k := koanf.New(".")

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config file %s: %w", path, err)
		}
	}

	// STATS_DB_HOST -> db_host; underscores are kept to match the flat keys
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.StorageMethod = strings.ToLower(strings.TrimSpace(c.StorageMethod))
	c.FlushPolicy = strings.ToLower(strings.TrimSpace(c.FlushPolicy))

	// Env values arrive as one comma-separated string
	var ids []string
	for _, v := range c.AdminIDs {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	c.AdminIDs = ids
}

// validate checks the values that cannot be defaulted at use
func (c *Config) validate() error {
	var errs []error
	if c.InstanceName == "" || strings.ContainsAny(c.InstanceName, `/\`) {
		errs = append(errs, fmt.Errorf("instance_name %q is not a valid file name", c.InstanceName))
	}
	if c.BackupCount < 1 {
		errs = append(errs, fmt.Errorf("backup_count must be at least 1, got %d", c.BackupCount))
	}
	if c.FlushInterval <= 0 {
		errs = append(errs, fmt.Errorf("flush_interval must be positive, got %s", c.FlushInterval))
	}
	switch c.FlushPolicy {
	case "immediate", "interval":
	default:
		errs = append(errs, fmt.Errorf("flush_policy must be immediate or interval, got %q", c.FlushPolicy))
	}
	if c.LoadRetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("load_retry_interval must be positive, got %s", c.LoadRetryInterval))
	}
	if c.MaxEventAmount <= 0 {
		errs = append(errs, fmt.Errorf("max_event_amount must be positive, got %d", c.MaxEventAmount))
	}
	if c.Token != "" && c.AppID == "" {
		errs = append(errs, errors.New("app_id is required when discord_token is set"))
	}
	return errors.Join(errs...)
}

// PlayersPath returns where the player directory is saved
func (c *Config) PlayersPath() string {
	if c.PlayersFile != "" {
		return c.PlayersFile
	}
	return filepath.Join(c.DataDir, c.InstanceName+"_players.json")
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// DiscordEnabled reports whether the Discord bot should run
func (c *Config) DiscordEnabled() bool {
	return c.Token != ""
}

// HTTPEnabled reports whether the HTTP API should listen
func (c *Config) HTTPEnabled() bool {
	return c.HTTPAddr != ""
}
