package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config represents a scrutin.yaml configuration file. CLI flags always
// override config values.
type Config struct {
	// BaseURL selects both surfaces of the backend: the REST root is
	// <base>/api and the socket endpoint is <base> with the scheme
	// swapped to ws/wss.
	BaseURL string `yaml:"base_url"`
	// HTTPTimeout bounds each REST request (default 30s).
	HTTPTimeout Duration `yaml:"http_timeout"`
	// EnteredBy is the operator identifier stamped on submissions.
	EnteredBy string `yaml:"entered_by"`
	// PrefsPath overrides the preference database location.
	PrefsPath string `yaml:"prefs_path"`
	// CachePath overrides the snapshot cache location.
	CachePath string `yaml:"cache_path"`

	Relay   RelayConfig   `yaml:"relay"`
	Archive ArchiveConfig `yaml:"archive"`
}

// RelayConfig holds event relay settings. Type empty disables the relay.
type RelayConfig struct {
	Type    string            `yaml:"type"` // "redis" or "webhook"
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// ArchiveConfig holds PV archive settings. Bucket empty disables archival.
type ArchiveConfig struct {
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks the configuration for use.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url scheme must be http or https, got %q", u.Scheme)
	}
	if c.Relay.Type != "" && c.Relay.Type != "redis" && c.Relay.Type != "webhook" {
		return fmt.Errorf("relay.type must be redis or webhook, got %q", c.Relay.Type)
	}
	return nil
}

// RESTRoot returns the REST API root derived from the base URL.
func (c *Config) RESTRoot() string {
	return strings.TrimRight(c.BaseURL, "/") + "/api"
}

// SocketURL returns the push channel endpoint: the base URL with its
// scheme swapped http→ws, https→wss.
func (c *Config) SocketURL() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base_url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("base_url scheme must be http or https, got %q", u.Scheme)
	}
	return u.String(), nil
}
