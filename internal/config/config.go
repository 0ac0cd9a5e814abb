// Package config loads runtime settings from flags, environment (CAREPATH_*) and an
// optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment variables, e.g. CAREPATH_REDIS_ADDR.
const EnvPrefix = "CAREPATH"

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreFile   = "file"
)

// Config holds every runtime setting of the carepath binaries.
type Config struct {
	LogLevel string `mapstructure:"log-level"`
	Addr     string `mapstructure:"addr"`

	Store         string        `mapstructure:"store"`
	RedisAddr     string        `mapstructure:"redis-addr"`
	RedisPassword string        `mapstructure:"redis-password"`
	RedisDB       int           `mapstructure:"redis-db"`
	RedisPrefix   string        `mapstructure:"redis-prefix"`
	QueuePrefix   string        `mapstructure:"redis-queue-prefix"`
	SessionTTL    time.Duration `mapstructure:"session-ttl"`
	SessionDir    string        `mapstructure:"session-dir"`
	ArchiveDir    string        `mapstructure:"archive-dir"`
	LockTTL       time.Duration `mapstructure:"lock-ttl"`

	EncryptionKey string `mapstructure:"encryption-key"`
	MaskPII       bool   `mapstructure:"mask-pii"`

	HandlerTimeout    time.Duration `mapstructure:"handler-timeout"`
	VenueFile         string        `mapstructure:"venue-file"`
	WaitList          string        `mapstructure:"waitlist"`
	MinutesPerPatient int           `mapstructure:"minutes-per-patient"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		LogLevel:          "info",
		Addr:              ":8080",
		Store:             StoreMemory,
		RedisAddr:         "localhost:6379",
		RedisPrefix:       "carepath:session:",
		QueuePrefix:       "carepath:queue:",
		SessionTTL:        24 * time.Hour,
		SessionDir:        ".carepath/sessions",
		LockTTL:           30 * time.Second,
		HandlerTimeout:    5 * time.Second,
		WaitList:          StoreMemory,
		MinutesPerPatient: 15,
	}
}

// RegisterFlags declares every setting on fs with its default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config-file", "", "path to a YAML/JSON/TOML config file")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.String("addr", d.Addr, "HTTP listen address")
	fs.String("store", d.Store, "session store: memory, redis or file")
	fs.String("redis-addr", d.RedisAddr, "redis address")
	fs.String("redis-password", "", "redis password")
	fs.Int("redis-db", 0, "redis database")
	fs.String("redis-prefix", d.RedisPrefix, "redis key prefix for sessions")
	fs.String("redis-queue-prefix", d.QueuePrefix, "redis key prefix for department wait lists")
	fs.Duration("session-ttl", d.SessionTTL, "expiry of sessions in redis (0 keeps them)")
	fs.String("session-dir", d.SessionDir, "directory of the file session store")
	fs.String("archive-dir", "", "directory where ended sessions are archived (disabled when empty)")
	fs.Duration("lock-ttl", d.LockTTL, "expiry of distributed session locks")
	fs.String("encryption-key", "", "base64 AES key; encrypts stored sessions when set")
	fs.Bool("mask-pii", false, "mask emails, phone numbers and SSNs in stored free text")
	fs.Duration("handler-timeout", d.HandlerTimeout, "time budget of a single step handler")
	fs.String("venue-file", "", "YAML venue map with beacons and geofence rings")
	fs.String("waitlist", d.WaitList, "department queues: memory or redis")
	fs.Int("minutes-per-patient", d.MinutesPerPatient, "wait estimate per patient ahead in the queue")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("addr", d.Addr)
	v.SetDefault("store", d.Store)
	v.SetDefault("redis-addr", d.RedisAddr)
	v.SetDefault("redis-password", "")
	v.SetDefault("redis-db", 0)
	v.SetDefault("redis-prefix", d.RedisPrefix)
	v.SetDefault("redis-queue-prefix", d.QueuePrefix)
	v.SetDefault("session-ttl", d.SessionTTL)
	v.SetDefault("session-dir", d.SessionDir)
	v.SetDefault("archive-dir", "")
	v.SetDefault("lock-ttl", d.LockTTL)
	v.SetDefault("encryption-key", "")
	v.SetDefault("mask-pii", false)
	v.SetDefault("handler-timeout", d.HandlerTimeout)
	v.SetDefault("venue-file", "")
	v.SetDefault("waitlist", d.WaitList)
	v.SetDefault("minutes-per-patient", d.MinutesPerPatient)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load binds fs (when not nil), reads configFile (when set) and decodes the result.
// Flags explicitly set on the command line win over the environment, which wins
// over the file.
func Load(v *viper.Viper, fs *pflag.FlagSet, configFile string) (*Config, error) {
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and required combinations.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreRedis:
	case StoreFile:
		if c.SessionDir == "" {
			return fmt.Errorf("invalid config: store %q needs session-dir", c.Store)
		}
	default:
		return fmt.Errorf("invalid config: unknown store %q", c.Store)
	}
	switch c.WaitList {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("invalid config: unknown waitlist %q", c.WaitList)
	}
	if c.MinutesPerPatient <= 0 {
		return fmt.Errorf("invalid config: minutes-per-patient must be positive")
	}
	if c.HandlerTimeout < 0 {
		return fmt.Errorf("invalid config: handler-timeout must not be negative")
	}
	return nil
}

// UsesRedis reports whether any component needs a redis connection.
func (c *Config) UsesRedis() bool {
	return c.Store == StoreRedis || c.WaitList == StoreRedis
}
