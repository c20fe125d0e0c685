package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SILENOS_AUTH_JWT_SECRET", "test-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "/ws", cfg.Server.WebSocketPath)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 13, cfg.Rules.WinScore)
	assert.Equal(t, 5, cfg.Rules.HandSize)
	assert.Equal(t, 40, cfg.Deck.Size)
	assert.Equal(t, 2, cfg.Deck.MaxCopies)
	assert.Equal(t, CatalogFromFile, cfg.Catalog.Source)
	assert.Equal(t, 2*time.Minute, cfg.Session.DefenseTimeout)
	assert.False(t, cfg.Replay.Enabled)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9000"
  read_timeout: 3s
  allowed_origins: ["https://silenos.example"]
database:
  driver: sqlite
  dsn: /tmp/silenos.db
logging:
  level: debug
  format: json
auth:
  jwt_secret: file-secret
  token_ttl: 1h
rules:
  win_score: 20
  deck_size: 30
deck:
  size: 30
  max_copies: 3
replay:
  enabled: true
  directory: /tmp/replays
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"https://silenos.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 20, cfg.Rules.WinScore)
	assert.Equal(t, 5, cfg.Rules.HandSize, "unset keys keep their defaults")
	assert.Equal(t, 3, cfg.Deck.MaxCopies)
	assert.True(t, cfg.Replay.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9000"
auth:
  jwt_secret: file-secret
`)
	t.Setenv("SILENOS_SERVER_ADDRESS", ":7000")
	t.Setenv("SILENOS_RULES_WIN_SCORE", "9")
	t.Setenv("SILENOS_SESSION_DEFENSE_TIMEOUT", "45s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Address)
	assert.Equal(t, 9, cfg.Rules.WinScore)
	assert.Equal(t, 45*time.Second, cfg.Session.DefenseTimeout)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "logging:\n  level: loud\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret is required")
	assert.Contains(t, err.Error(), `unknown logging.level "loud"`)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv("SILENOS_AUTH_JWT_SECRET", "test-secret")
	cfg, err := Load("")
	require.NoError(t, err)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		mutate func(*Config)
		want   string
	}{
		"postgres without dsn": {
			mutate: func(c *Config) { c.Database.Driver = DriverPostgres },
			want:   "database.dsn is required",
		},
		"unknown driver": {
			mutate: func(c *Config) { c.Database.Driver = "mongo" },
			want:   `unknown database.driver "mongo"`,
		},
		"deck size mismatch": {
			mutate: func(c *Config) { c.Deck.Size = 30 },
			want:   "does not match rules.deck_size",
		},
		"bad rules": {
			mutate: func(c *Config) { c.Rules.WinScore = 0 },
			want:   "win score must be positive",
		},
		"database catalog on sqlite": {
			mutate: func(c *Config) {
				c.Catalog.Source = CatalogFromDatabase
				c.Database.Driver = DriverSQLite
				c.Database.DSN = "x.db"
			},
			want: "requires database.driver postgres",
		},
		"replay without directory": {
			mutate: func(c *Config) {
				c.Replay.Enabled = true
				c.Replay.Directory = ""
			},
			want: "replay.directory is required",
		},
		"sweeper without interval": {
			mutate: func(c *Config) { c.Session.SweepInterval = 0 },
			want:   "session.sweep_interval must be positive",
		},
		"relative websocket path": {
			mutate: func(c *Config) { c.Server.WebSocketPath = "ws" },
			want:   "must start with /",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig(t)
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
