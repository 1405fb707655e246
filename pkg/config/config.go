package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Config holds all configuration for the application
type Config struct {
	Environment   string `env:"ENVIRONMENT" envDefault:"development"`
	IsProduction  bool   `env:"-"`
	IsDevelopment bool   `env:"-"`

	// Discord Bot Configuration
	DiscordToken  string `env:"DISCORD_TOKEN"`
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!"`

	// Storage Configuration
	StoreDriver   string `env:"STORE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"cooknet.db"`
	MongoDBURI    string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGODB_DATABASE"`

	// Web Configuration
	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":10000"`
	PublicURL    string `env:"PUBLIC_URL" envDefault:"http://localhost:10000"`
	WebhookToken string `env:"WEBHOOK_TOKEN"`

	// Conversation Configuration
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"300s"`
	ActionCooldown time.Duration `env:"ACTION_COOLDOWN" envDefault:"3s"`

	// Dispatcher Configuration
	DispatchWorkers   int `env:"DISPATCH_WORKERS" envDefault:"4"`
	DispatchQueueSize int `env:"DISPATCH_QUEUE_SIZE" envDefault:"64"`

	// Listing Configuration
	TopLimit int `env:"TOP_LIMIT" envDefault:"5"`

	// Digest Configuration
	DailyInterval     time.Duration `env:"DAILY_INTERVAL" envDefault:"24h"`
	BroadcastInterval time.Duration `env:"BROADCAST_INTERVAL" envDefault:"2s"`

	// Logging Configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDir   string `env:"LOG_DIR" envDefault:"logs"`
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse reads the environment into a Config without validating it
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Derived properties
	cfg.IsProduction = cfg.Environment == "production"
	cfg.IsDevelopment = !cfg.IsProduction
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = "cooknet"
		if cfg.IsDevelopment {
			cfg.MongoDatabase = "cooknet_dev"
		}
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN environment variable is required")
	}

	switch c.StoreDriver {
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case StoreMongo:
		if strings.TrimSpace(c.MongoDBURI) == "" {
			return fmt.Errorf("MONGODB_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if c.ActionCooldown < 0 {
		return fmt.Errorf("ACTION_COOLDOWN must not be negative")
	}
	if c.DispatchWorkers <= 0 {
		return fmt.Errorf("DISPATCH_WORKERS must be positive")
	}

	return nil
}
