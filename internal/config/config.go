// Package config loads server configuration from YAML, .env and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. CLOACA_STORAGE_DRIVER.
const EnvPrefix = "CLOACA"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	// LockTimeout bounds the wait for a game's session lock.
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	// SnapshotEvery is the number of actions between archived snapshots.
	SnapshotEvery int `mapstructure:"snapshot_every"`
}

type WebSocketConfig struct {
	Address    string `mapstructure:"address"`
	Path       string `mapstructure:"path"`
	SendBuffer int    `mapstructure:"send_buffer"`
	// MaxDecodeErrors closes a connection after this many undecodable
	// messages.
	MaxDecodeErrors int `mapstructure:"max_decode_errors"`
}

type GRPCConfig struct {
	Address string `mapstructure:"address"`
}

type StorageConfig struct {
	Driver     string      `mapstructure:"driver"`
	DSN        string      `mapstructure:"dsn"`
	Redis      RedisConfig `mapstructure:"redis"`
	ArchiveDir string      `mapstructure:"archive_dir"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type AuthConfig struct {
	TokenSecret string `mapstructure:"token_secret"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.path", "/ws")
	v.SetDefault("server.websocket.send_buffer", 256)
	v.SetDefault("server.websocket.max_decode_errors", 5)
	v.SetDefault("server.grpc.address", ":9090")
	v.SetDefault("server.lock_timeout", time.Second)
	v.SetDefault("server.snapshot_every", 25)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "")
	v.SetDefault("storage.archive_dir", "")

	v.SetDefault("auth.token_secret", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads path (if it exists) over the defaults. A .env file in the
// working directory is loaded into the environment first; variables already
// set win.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return nil, fmt.Errorf("failed to read config %s: %w", path, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "redis":
	case "postgres":
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Server.LockTimeout <= 0 {
		return errors.New("server.lock_timeout must be positive")
	}
	if c.Server.WebSocket.SendBuffer <= 0 {
		return errors.New("server.websocket.send_buffer must be positive")
	}
	if c.Server.WebSocket.MaxDecodeErrors <= 0 {
		return errors.New("server.websocket.max_decode_errors must be positive")
	}
	return nil
}
