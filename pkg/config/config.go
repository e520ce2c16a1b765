package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	API struct {
		BaseURL    string        `yaml:"base_url" json:"base_url" jsonschema:"required,description=Backend intel API base URL"`
		ServiceKey string        `yaml:"service_key" json:"service_key" jsonschema:"description=Service key sent with every request (can use environment variable)"`
		Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP client timeout"`
	} `yaml:"api" json:"api" jsonschema:"description=Upstream API configuration"`

	Feed FeedConfig `yaml:"feed" json:"feed" jsonschema:"description=Feed aggregation configuration"`

	Schedule struct {
		RefreshInterval time.Duration `yaml:"refresh_interval" json:"refresh_interval" jsonschema:"default=5m,description=Background refresh interval"`
	} `yaml:"schedule" json:"schedule" jsonschema:"description=Scheduler configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:intelscope.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	News []NewsFeed `yaml:"news" json:"news" jsonschema:"description=Optional legal-news RSS sources"`
}

// FeedConfig holds feed aggregation settings
type FeedConfig struct {
	Days         int           `yaml:"days" json:"days" jsonschema:"default=7,minimum=1,description=Lookback window in days for sources with a date filter"`
	PerPage      int           `yaml:"per_page" json:"per_page" jsonschema:"default=10,minimum=1,description=Page size requested per source"`
	StaleTTL     time.Duration `yaml:"stale_ttl" json:"stale_ttl" jsonschema:"default=3m,description=How long a source result stays fresh"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout" jsonschema:"default=15s,description=Per-attempt timeout for one source fetch"`
	RetryDelay   time.Duration `yaml:"retry_delay" json:"retry_delay" jsonschema:"default=1s,description=Pause before the single retry of a failed source"`
}

// NewsFeed is one configured RSS source
type NewsFeed struct {
	Name string `yaml:"name" json:"name" jsonschema:"required,description=Display name of the feed"`
	URL  string `yaml:"url" json:"url" jsonschema:"required,description=Feed URL"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// set defaults for server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	// set defaults for API client
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}

	// set defaults for feed aggregation
	if cfg.Feed.Days == 0 {
		cfg.Feed.Days = 7
	}
	if cfg.Feed.PerPage == 0 {
		cfg.Feed.PerPage = 10
	}
	if cfg.Feed.StaleTTL == 0 {
		cfg.Feed.StaleTTL = 3 * time.Minute
	}
	if cfg.Feed.FetchTimeout == 0 {
		cfg.Feed.FetchTimeout = 15 * time.Second
	}
	if cfg.Feed.RetryDelay == 0 {
		cfg.Feed.RetryDelay = time.Second
	}

	// set defaults for schedule
	if cfg.Schedule.RefreshInterval == 0 {
		cfg.Schedule.RefreshInterval = 5 * time.Minute
	}

	// set defaults for database
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:intelscope.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 3600
	}

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}

	if cfg.Feed.Days < 1 {
		return fmt.Errorf("feed.days must be at least 1")
	}
	if cfg.Feed.PerPage < 1 {
		return fmt.Errorf("feed.per_page must be at least 1")
	}
	if cfg.Feed.FetchTimeout < time.Second {
		return fmt.Errorf("feed.fetch_timeout must be at least 1 second")
	}

	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	for i, nf := range cfg.News {
		if nf.Name == "" || nf.URL == "" {
			return fmt.Errorf("news feed %d: name and url are required", i)
		}
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetFeedConfig returns feed aggregation configuration
func (c *Config) GetFeedConfig() FeedConfig {
	return c.Feed
}
