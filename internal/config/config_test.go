package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Ygohel18/lighthouse-test/internal/audit"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "audits", cfg.Queue.Name)
	require.Equal(t, 3, cfg.Queue.MaxAttempts)
	require.Equal(t, time.Second, cfg.QueueBaseDelay())
	require.Equal(t, 15*time.Minute, cfg.SignedURLExpiry())
	require.Equal(t, 60*time.Second, cfg.NavigationTimeout())
	require.Equal(t, "simulate", cfg.Audit.ThrottlingMethod)
	require.Equal(t, 100, cfg.Audit.ListLimit)
	require.Equal(t, DefaultTestConfigs(), cfg.Audit.DefaultConfigs)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
server:
  port: 9090
queue:
  name: audits-staging
  max_attempts: 5
storage:
  bucket: staging-screenshots
audit:
  throttling_method: provided
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "audits-staging", cfg.Queue.Name)
	require.Equal(t, 5, cfg.Queue.MaxAttempts)
	require.Equal(t, "staging-screenshots", cfg.Storage.Bucket)
	require.Equal(t, "provided", cfg.Audit.ThrottlingMethod)
	// Untouched values keep their defaults.
	require.Equal(t, 1000, cfg.Queue.BaseDelayMs)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero port", mutate: func(c *Config) { c.Server.Port = 0 }},
		{name: "empty dsn", mutate: func(c *Config) { c.DB.DSN = "" }},
		{name: "empty redis addr", mutate: func(c *Config) { c.Redis.Addr = "" }},
		{name: "zero attempts", mutate: func(c *Config) { c.Queue.MaxAttempts = 0 }},
		{name: "empty bucket", mutate: func(c *Config) { c.Storage.Bucket = "" }},
		{name: "bad throttling", mutate: func(c *Config) { c.Audit.ThrottlingMethod = "none" }},
		{name: "pubsub without topic", mutate: func(c *Config) {
			c.PubSub.Enabled = true
			c.PubSub.ProjectID = "proj"
			c.PubSub.TopicName = ""
		}},
		{name: "auth without key", mutate: func(c *Config) { c.Auth.Enabled = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestDefaultTestConfigsShape(t *testing.T) {
	defaults := DefaultTestConfigs()
	require.Len(t, defaults, 3)
	for i, cfg := range defaults {
		require.Equal(t, audit.BrowserChrome, cfg.Browser)
		require.NotEmpty(t, cfg.Location)
		for j := 0; j < i; j++ {
			require.False(t, defaults[j].Equal(cfg), "defaults must be distinct")
		}
	}
}
