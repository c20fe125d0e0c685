// Package config loads the server configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/silenos/silenos-server-go/internal/deck"
	"github.com/silenos/silenos-server-go/internal/game/rules"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SILENOS_SERVER_ADDRESS.
const EnvPrefix = "SILENOS"

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Rules    rules.Config   `mapstructure:"rules"`
	Deck     deck.Rules     `mapstructure:"deck"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Session  SessionConfig  `mapstructure:"session"`
	Replay   ReplayConfig   `mapstructure:"replay"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	WebSocketPath   string        `mapstructure:"websocket_path"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects and tunes the game store.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig configures bearer tokens and the admin surface.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	// AdminPasswordHash is a bcrypt hash. Empty disables the admin routes.
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

// CatalogConfig says where card definitions come from.
type CatalogConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
}

// Catalog sources.
const (
	CatalogFromFile     = "file"
	CatalogFromDatabase = "database"
)

// SessionConfig tunes the game session service.
type SessionConfig struct {
	// DefenseTimeout is how long a defender may wait before the attack is
	// resolved as if they skipped. Zero disables the sweeper.
	DefenseTimeout time.Duration `mapstructure:"defense_timeout"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
}

// ReplayConfig controls replay recording.
type ReplayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.websocket_path", "/ws")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("database.driver", DriverMemory)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "silenos")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_password_hash", "")

	r := rules.DefaultConfig()
	v.SetDefault("rules.starting_units", r.StartingUnits)
	v.SetDefault("rules.hand_size", r.HandSize)
	v.SetDefault("rules.win_score", r.WinScore)
	v.SetDefault("rules.turn_income", r.TurnIncome)
	v.SetDefault("rules.deck_size", r.DeckSize)
	v.SetDefault("rules.require_printed_ability", r.RequirePrintedAbility)

	d := deck.DefaultRules()
	v.SetDefault("deck.size", d.Size)
	v.SetDefault("deck.max_copies", d.MaxCopies)

	v.SetDefault("catalog.source", CatalogFromFile)
	v.SetDefault("catalog.path", "config/cards.yaml")

	v.SetDefault("session.defense_timeout", 2*time.Minute)
	v.SetDefault("session.sweep_interval", 15*time.Second)

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.directory", "replays")
}

// Load reads the configuration file at path (skipped when path is empty),
// applies SILENOS_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every impossible setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if !strings.HasPrefix(c.Server.WebSocketPath, "/") {
		errs = append(errs, fmt.Errorf("server.websocket_path must start with /, got %q", c.Server.WebSocketPath))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}
	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, fmt.Errorf("database.min_conns %d exceeds max_conns %d", c.Database.MinConns, c.Database.MaxConns))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}

	if err := c.Rules.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rules: %w", err))
	}
	if c.Deck.Size <= 0 {
		errs = append(errs, fmt.Errorf("deck.size must be positive, got %d", c.Deck.Size))
	}
	if c.Rules.DeckSize > 0 && c.Deck.Size != c.Rules.DeckSize {
		errs = append(errs, fmt.Errorf("deck.size %d does not match rules.deck_size %d", c.Deck.Size, c.Rules.DeckSize))
	}

	switch c.Catalog.Source {
	case CatalogFromFile:
		if c.Catalog.Path == "" {
			errs = append(errs, errors.New("catalog.path is required for source file"))
		}
	case CatalogFromDatabase:
		if c.Database.Driver != DriverPostgres {
			errs = append(errs, errors.New("catalog.source database requires database.driver postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown catalog.source %q", c.Catalog.Source))
	}

	if c.Session.DefenseTimeout < 0 {
		errs = append(errs, errors.New("session.defense_timeout must not be negative"))
	}
	if c.Session.DefenseTimeout > 0 && c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("session.sweep_interval must be positive when a defense timeout is set"))
	}

	if c.Replay.Enabled && c.Replay.Directory == "" {
		errs = append(errs, errors.New("replay.directory is required when replays are enabled"))
	}

	return errors.Join(errs...)
}
