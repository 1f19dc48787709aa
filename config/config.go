// Package config loads the godata configuration file: OAuth client
// credentials plus per-service request settings, stored as TOML in the
// user's config directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ServiceSettings are the per-service request settings.
type ServiceSettings struct {
	// Timeout bounds each request in seconds. Values below one second are
	// raised to one second when applied.
	Timeout int `toml:"timeout,omitempty"`
	// Locale is sent as Accept-Language when non-empty.
	Locale string `toml:"locale,omitempty"`
	// DeveloperKey is the application key for services that require one.
	DeveloperKey string `toml:"developer_key,omitempty"`
}

// Config is the godata configuration file.
type Config struct {
	// ClientID, ClientSecret and RedirectURI are the application's OAuth
	// client credentials.
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret,omitempty"`
	RedirectURI  string `toml:"redirect_uri,omitempty"`

	// Services maps service names ("calendar", "youtube", "documents")
	// onto their settings.
	Services map[string]ServiceSettings `toml:"services,omitempty"`
}

// ServiceTimeout returns the configured timeout for service as a duration,
// or 0 when unset.
func (c *Config) ServiceTimeout(service string) time.Duration {
	s, ok := c.Services[service]
	if !ok || s.Timeout <= 0 {
		return 0
	}
	d := time.Duration(s.Timeout) * time.Second
	if d < time.Second {
		d = time.Second
	}
	return d
}

// ServiceLocale returns the configured locale for service, or "".
func (c *Config) ServiceLocale(service string) string {
	return c.Services[service].Locale
}

// DefaultPath returns the default configuration file path,
// ~/.godata/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".godata", "config.toml"), nil
}

// Load reads the configuration from path; "" means DefaultPath. A missing
// file yields an empty configuration, not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the configuration to path; "" means DefaultPath. The file is
// created with owner-only permissions, it holds the client secret.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
