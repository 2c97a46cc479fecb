package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds all application configuration
type Config struct {
	Environment string          `koanf:"environment"`
	Discord     DiscordConfig   `koanf:"discord"`
	Database    DatabaseConfig  `koanf:"database"`
	API         APIConfig       `koanf:"api"`
	AdminIDs    []int64         `koanf:"admin_ids"`
	WebURL      string          `koanf:"web_url"`
	Ephemeral   EphemeralConfig `koanf:"ephemeral"`
	Pager       PagerConfig     `koanf:"pager"`
}

// DiscordConfig holds Discord bot configuration
type DiscordConfig struct {
	Token         string `koanf:"token"`
	ApplicationID string `koanf:"application_id"`
	// GuildID limits slash-command registration to one guild when set.
	// Empty registers commands globally.
	GuildID string `koanf:"guild_id"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	User           string        `koanf:"user"`
	Password       string        `koanf:"password"`
	Database       string        `koanf:"database"`
	SSLMode        string        `koanf:"sslmode"`
	ConnectRetries int           `koanf:"connect_retries"`
	RetryDelay     time.Duration `koanf:"retry_delay"`
}

// APIConfig holds the read-only HTTP listing endpoint configuration
type APIConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
}

// EphemeralConfig controls auto-deletion of ephemeral confirmations
type EphemeralConfig struct {
	DeleteDelay time.Duration `koanf:"delete_delay"` // e.g., "5s"
}

// PagerConfig controls interactive selection sessions
type PagerConfig struct {
	IdleTimeout   time.Duration `koanf:"idle_timeout"`   // e.g., "5m"
	SweepInterval time.Duration `koanf:"sweep_interval"` // e.g., "30s"
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}

// IsAdmin reports whether a user ID is on the static admin allow-list
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Load loads configuration from environment variables and config files
func Load(environment string) (*Config, error) {
	k := koanf.New(".")
	// Load defaults first (lowest priority)
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	// Load from config file based on environment
	configFile := fmt.Sprintf("config/%s.yaml", environment)
	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		// Config file is optional, log but don't fail
		fmt.Printf("Warning: could not load config file %s: %v\n", configFile, err)
	}

	// Load from environment variables with QUORK_ prefix
	// Environment variables override config file values
	if err := k.Load(env.ProviderWithValue("QUORK_", "__", func(key string, value string) (string, interface{}) {
		finalKey := strings.TrimPrefix(strings.ToLower(key), "quork_")

		// Check if the existing config has this key as a slice
		switch k.Get(finalKey).(type) {
		case []interface{}, []string, []int64:
			// It's a slice, split by comma
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return finalKey, parts
		}

		return finalKey, value
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Environment = environment

	return &cfg, nil
}

// defaultConfig returns the default configuration values
func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Port:           5432,
			SSLMode:        "disable",
			ConnectRetries: 5,
			RetryDelay:     3 * time.Second,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
		},
		Ephemeral: EphemeralConfig{
			DeleteDelay: 5 * time.Second,
		},
		Pager: PagerConfig{
			IdleTimeout:   5 * time.Minute,
			SweepInterval: 30 * time.Second,
		},
	}
}
