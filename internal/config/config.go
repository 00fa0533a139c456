package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram Telegram `yaml:"telegram"`
	Download Download `yaml:"download"`
	Extract  Extract  `yaml:"extract"`
	Worker   Worker   `yaml:"worker"`
	Admin    Admin    `yaml:"admin"`
}

// Telegram holds bot credentials and gating configuration.
type Telegram struct {
	BotToken string `yaml:"bot_token" envconfig:"BOT_TOKEN"`

	// Whitelist is the set of chat/user ids allowed to use the bot.
	Whitelist []int64 `yaml:"whitelist" envconfig:"WHITELIST"`

	// APIEndpoint overrides the Bot API base URL, e.g. for a local
	// bot-api server that accepts large uploads.
	APIEndpoint string `yaml:"api_endpoint" envconfig:"TELEGRAM_API_ENDPOINT"`

	// UpdateTimeout is the long-poll timeout in seconds.
	UpdateTimeout int `yaml:"update_timeout" envconfig:"TELEGRAM_UPDATE_TIMEOUT" default:"30"`
}

// Download holds direct-download configuration.
type Download struct {
	MaxSizeMB   int64         `yaml:"max_size_mb" envconfig:"MAX_SIZE_MB" default:"50"`
	HTTPTimeout time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT" default:"45s"`
	UserAgent   string        `yaml:"user_agent" envconfig:"DOWNLOAD_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"`
	TempDir     string        `yaml:"temp_dir" envconfig:"TEMP_DIR"`
}

// Extract holds extraction-tool configuration.
type Extract struct {
	Path              string        `yaml:"path" envconfig:"YTDLP_PATH" default:"yt-dlp"`
	Format            string        `yaml:"format" envconfig:"YTDLP_FORMAT" default:"bv*+ba/b"`
	RestrictFilenames bool          `yaml:"restrict_filenames" envconfig:"YTDLP_RESTRICT_FNAME" default:"true"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"EXTRACT_TIMEOUT" default:"5m"`

	// ExtraDomains extends the built-in set of extractable sites.
	ExtraDomains []string `yaml:"extra_domains" envconfig:"EXTRA_DOMAINS"`
}

// Worker holds pipeline worker pool configuration.
type Worker struct {
	Count     int           `yaml:"count" envconfig:"WORKER_COUNT" default:"4"`
	QueueSize int           `yaml:"queue_size" envconfig:"WORKER_QUEUE_SIZE" default:"64"`
	StopGrace time.Duration `yaml:"stop_grace" envconfig:"WORKER_STOP_GRACE" default:"30s"`
}

// Admin holds the ops HTTP server configuration.
type Admin struct {
	Host   string `yaml:"host" envconfig:"ADMIN_HOST" default:"0.0.0.0"`
	Port   int    `yaml:"port" envconfig:"ADMIN_PORT" default:"8080"`
	APIKey string `yaml:"api_key" envconfig:"ADMIN_API_KEY"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if len(c.Telegram.Whitelist) == 0 {
		return fmt.Errorf("WHITELIST is required")
	}
	if c.Download.MaxSizeMB <= 0 {
		return fmt.Errorf("MAX_SIZE_MB must be positive")
	}
	if c.Worker.Count <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive")
	}
	return nil
}

// MaxSizeBytes returns the download size limit in bytes.
func (d *Download) MaxSizeBytes() int64 {
	return d.MaxSizeMB * 1024 * 1024
}

// Address returns the admin server address in host:port format.
func (a *Admin) Address() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}
