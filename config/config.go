package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	SearchModeLocal  = "local"
	SearchModeRemote = "remote"
)

// DefaultPlaceholders is the image pool used when an article has no usable image.
var DefaultPlaceholders = []string{
	"https://images.unsplash.com/photo-1446776811953-b23d57bd21aa",
	"https://images.unsplash.com/photo-1451187580459-43490279c0fa",
	"https://images.unsplash.com/photo-1457364887197-9150188c107b",
	"https://images.unsplash.com/photo-1516849841032-87cbac4d88f7",
}

// DefaultMarkers flag upstream image URLs that are placeholders themselves.
var DefaultMarkers = []string{"placeholder", "default-image", "no-image"}

type Config struct {
	Server struct {
		Port         int
		Debug        bool
		Prefetch     bool
		AllowOrigins []string
	}
	Upstream struct {
		BaseURL   string
		Timeout   string
		PageSize  int
		RateLimit float64
		Burst     int
		UserAgent string
	}
	Search struct {
		Mode     string
		Debounce string
	}
	Display struct {
		SummaryLength int
		Placeholders  []string
		Markers       []string
	}
	Logging LoggingConfig
}

type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// LoadConfig reads config.yaml from path (or ./ and ./config when path is
// empty), then applies READER_* environment overrides. A missing file is not
// an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("reader")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.prefetch", true)
	v.SetDefault("server.alloworigins", []string{"*"})

	v.SetDefault("upstream.baseurl", "https://api.spaceflightnewsapi.net/v4")
	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("upstream.pagesize", 6)
	v.SetDefault("upstream.ratelimit", 5)
	v.SetDefault("upstream.burst", 5)
	v.SetDefault("upstream.useragent", "spaceflight-reader/1.0")

	v.SetDefault("search.mode", SearchModeLocal)
	v.SetDefault("search.debounce", "300ms")

	v.SetDefault("display.summarylength", 100)
	v.SetDefault("display.placeholders", DefaultPlaceholders)
	v.SetDefault("display.markers", DefaultMarkers)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: invalid port %d", c.Server.Port)
	}

	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("upstream.baseurl: must be an absolute http(s) URL, got %q", c.Upstream.BaseURL)
	}

	if c.Upstream.PageSize < 1 || c.Upstream.PageSize > 100 {
		return fmt.Errorf("upstream.pagesize: must be between 1 and 100, got %d", c.Upstream.PageSize)
	}

	if _, err := time.ParseDuration(c.Upstream.Timeout); err != nil {
		return fmt.Errorf("upstream.timeout: %w", err)
	}

	if _, err := time.ParseDuration(c.Search.Debounce); err != nil {
		return fmt.Errorf("search.debounce: %w", err)
	}

	switch c.Search.Mode {
	case SearchModeLocal, SearchModeRemote:
	default:
		return fmt.Errorf("search.mode: must be %q or %q, got %q", SearchModeLocal, SearchModeRemote, c.Search.Mode)
	}

	if c.Display.SummaryLength < 1 {
		return fmt.Errorf("display.summarylength: must be positive, got %d", c.Display.SummaryLength)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}

	return nil
}

func (c *Config) GetUpstreamTimeout() time.Duration {
	d, err := time.ParseDuration(c.Upstream.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Search.Debounce)
	if err != nil {
		return 300 * time.Millisecond
	}
	return d
}
