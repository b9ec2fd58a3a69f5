package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultListenPort, cfg.Web.ListenPort)
	assert.Equal(t, "./data", cfg.Database.DataDir)
	assert.True(t, cfg.Database.WALMode)
	assert.Equal(t, DefaultSessionTTL, cfg.Session.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "custom.yaml")
	yaml := []byte(`web:
  listen_port: 8080
database:
  data_dir: /var/lib/yelpcamp
session:
  ttl: 2h
log:
  level: debug
  format: json
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("YELPCAMP_WEB_LISTEN_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Web.ListenPort, "env overrides file")
	assert.Equal(t, "/var/lib/yelpcamp", cfg.Database.DataDir)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *MainConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *MainConfig) {}},
		{name: "low port", mutate: func(c *MainConfig) { c.Web.ListenPort = 80 }, wantErr: true},
		{name: "high port", mutate: func(c *MainConfig) { c.Web.ListenPort = 70000 }, wantErr: true},
		{name: "ssl without cert", mutate: func(c *MainConfig) { c.Web.SSL = true }, wantErr: true},
		{name: "ssl with cert", mutate: func(c *MainConfig) {
			c.Web.SSL = true
			c.Web.CertFile = "cert.pem"
			c.Web.KeyFile = "key.pem"
		}},
		{name: "no data dir", mutate: func(c *MainConfig) { c.Database.DataDir = "" }, wantErr: true},
		{name: "zero ttl", mutate: func(c *MainConfig) { c.Session.TTL = 0 }, wantErr: true},
		{name: "zero cleanup", mutate: func(c *MainConfig) { c.Session.CleanupInterval = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
