package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(Sources{File: filepath.Join(dir, "missing.yaml"), EnvFile: filepath.Join(dir, ".env")})
	require.NoError(t, err)

	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "productdesk.db", cfg.Storage.Target())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "config.yaml", `
server:
  port: 9000
  shutdowntimeout: 3s
storage:
  driver: memory
  namespace: shop
log:
  level: debug
`)
	envPath := writeFile(t, dir, ".env", "PRODUCTDESK_SERVER_PORT=9100\nPRODUCTDESK_LOG_LEVEL=warn\nOTHER_VAR=1\n")
	t.Setenv("PRODUCTDESK_LOG_LEVEL", "error")

	cfg, err := Load(Sources{File: yamlPath, EnvFile: envPath})
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, ".env beats yaml")
	assert.Equal(t, "error", cfg.Log.Level, "environment beats .env")
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "shop", cfg.Storage.Namespace)
}

func TestLoad_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PRODUCTDESK_STORAGE_DRIVER", "postgres")

	_, err := Load(Sources{File: filepath.Join(dir, "none.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.dsn")
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Server:  Server{Port: 8082},
		Storage: Storage{Driver: "sqlite", Path: "x.db"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"driver", func(c *Config) { c.Storage.Driver = "redis" }},
		{"sqlite path", func(c *Config) { c.Storage.Path = "" }},
		{"namespace", func(c *Config) { c.Storage.Namespace = "a/b" }},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }},
		{"metrics token", func(c *Config) { c.Metrics.Enabled = true }},
		{"rate limit", func(c *Config) { c.RateLimit.WritesPerMinute = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_StringMasksSecrets(t *testing.T) {
	c := Config{
		Storage: Storage{Driver: "postgres", DSN: "postgres://user:pw@db:5432/app"},
		Auth:    Auth{JWTSecret: "0123456789abcdef0123456789abcdef"},
	}

	s := c.String()
	assert.NotContains(t, s, "pw")
	assert.NotContains(t, s, "0123456789abcdef")
	assert.Contains(t, s, "****@db:5432/app")
	assert.Equal(t, c.Storage.DSN, c.Storage.Target())
}
