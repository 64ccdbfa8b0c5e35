// Package config loads service settings from config.yaml, .env and
// PRODUCTDESK_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"ProductDesk/internal/kv"
)

const EnvPrefix = "PRODUCTDESK_"

type Server struct {
	Port              int           `koanf:"port"`
	ReadHeaderTimeout time.Duration `koanf:"readheadertimeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdowntimeout"`
}

type Storage struct {
	Driver    string `koanf:"driver"`
	Path      string `koanf:"path"`
	DSN       string `koanf:"dsn"`
	Namespace string `koanf:"namespace"`
}

// Target is what kv.Open expects for the configured driver.
func (s Storage) Target() string {
	if s.Driver == kv.DriverPostgres {
		return s.DSN
	}
	return s.Path
}

type Log struct {
	Level string `koanf:"level"`
}

type Metrics struct {
	Enabled bool   `koanf:"enabled"`
	Token   string `koanf:"token"`
}

type Auth struct {
	JWTSecret string `koanf:"jwtsecret"`
}

type RateLimit struct {
	WritesPerMinute int `koanf:"writesperminute"`
}

type Config struct {
	Server    Server    `koanf:"server"`
	Storage   Storage   `koanf:"storage"`
	Log       Log       `koanf:"log"`
	Metrics   Metrics   `koanf:"metrics"`
	Auth      Auth      `koanf:"auth"`
	RateLimit RateLimit `koanf:"ratelimit"`
}

var defaults = map[string]any{
	"server.port":               8082,
	"server.readheadertimeout":  "5s",
	"server.shutdowntimeout":    "10s",
	"storage.driver":            kv.DriverSQLite,
	"storage.path":              "productdesk.db",
	"log.level":                 "info",
	"ratelimit.writesperminute": 0,
}

type Sources struct {
	File    string
	EnvFile string
}

func DefaultSources() Sources {
	return Sources{File: "config.yaml", EnvFile: ".env"}
}

func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.ReplaceAll(key, "_", ".")
}

// Load merges defaults, the YAML file, the .env file and the environment.
// Missing files are skipped.
func Load(src Sources) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if src.File != "" {
		if err := k.Load(file.Provider(src.File), yaml.Parser()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", src.File, err)
		}
	}

	if src.EnvFile != "" {
		vals, err := godotenv.Read(src.EnvFile)
		switch {
		case err == nil:
			m := make(map[string]any, len(vals))
			for key, v := range vals {
				if strings.HasPrefix(key, EnvPrefix) {
					m[envKey(key)] = v
				}
			}
			if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", src.EnvFile, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("read %s: %w", src.EnvFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	switch c.Storage.Driver {
	case kv.DriverMemory:
	case kv.DriverSQLite:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for sqlite")
		}
	case kv.DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	if strings.Contains(c.Storage.Namespace, "/") {
		return errors.New("storage.namespace must not contain '/'")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return errors.New("auth.jwtsecret must be at least 32 chars")
	}
	if c.Metrics.Enabled && c.Metrics.Token == "" {
		return errors.New("metrics.token is required when metrics are enabled")
	}
	if c.RateLimit.WritesPerMinute < 0 {
		return errors.New("ratelimit.writesperminute must not be negative")
	}
	return nil
}

// String renders the effective config with secrets masked.
func (c Config) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "server.port: %d\n", c.Server.Port)
	fmt.Fprintf(&b, "server.readheadertimeout: %s\n", c.Server.ReadHeaderTimeout)
	fmt.Fprintf(&b, "server.shutdowntimeout: %s\n", c.Server.ShutdownTimeout)
	fmt.Fprintf(&b, "storage.driver: %s\n", c.Storage.Driver)
	fmt.Fprintf(&b, "storage.path: %s\n", c.Storage.Path)
	fmt.Fprintf(&b, "storage.dsn: %s\n", maskDSN(c.Storage.DSN))
	fmt.Fprintf(&b, "storage.namespace: %s\n", c.Storage.Namespace)
	fmt.Fprintf(&b, "log.level: %s\n", c.Log.Level)
	fmt.Fprintf(&b, "metrics.enabled: %t\n", c.Metrics.Enabled)
	fmt.Fprintf(&b, "auth.jwtsecret: %s\n", mask(c.Auth.JWTSecret))
	fmt.Fprintf(&b, "ratelimit.writesperminute: %d\n", c.RateLimit.WritesPerMinute)

	return b.String()
}

func mask(s string) string {
	if s == "" {
		return "<not configured>"
	}
	return "****"
}

func maskDSN(dsn string) string {
	if dsn == "" {
		return "<not configured>"
	}
	if _, host, ok := strings.Cut(dsn, "@"); ok {
		return "****@" + host
	}
	return "****"
}
