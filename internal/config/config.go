// Package config provides YAML configuration file loading and validation.
// It handles environment variable expansion, default value application,
// and resolution of a server argument to a configured endpoint.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file.
const DefaultPath = "config/servers.yaml"

// Config represents the root configuration structure loaded from YAML.
type Config struct {
	Servers  []Server `yaml:"servers"`  // Named endpoints
	Defaults Defaults `yaml:"defaults"` // Settings shared by all servers
}

// Server is one named JSON-RPC endpoint.
type Server struct {
	Name    string            `yaml:"name"`              // Identifier usable in place of the URL
	URL     string            `yaml:"url"`               // Endpoint URL (supports ${VAR} env expansion)
	Timeout time.Duration     `yaml:"timeout,omitempty"` // Per-request timeout (optional, inherits Defaults.Timeout)
	Headers map[string]string `yaml:"headers,omitempty"` // Static headers sent with every request
}

// Defaults contains values that apply unless overridden per server or by a flag.
type Defaults struct {
	Timeout time.Duration `yaml:"timeout"` // Per-request timeout; 0 waits forever
	Count   uint64        `yaml:"count"`   // Blocks to look back; 0 leaves the CLI default
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{}
}

// Validate checks the configuration and applies defaults where appropriate.
// It may emit warnings (to stderr) for suspicious values but does not fail on warnings.
func (c *Config) Validate() error {
	if c.Defaults.Timeout < 0 {
		return fmt.Errorf("defaults.timeout must be >= 0")
	}

	warnTimeout := func(scope string, d time.Duration) {
		const low = 500 * time.Millisecond
		const high = 2 * time.Minute
		if d > 0 && d < low {
			fmt.Fprintf(os.Stderr, "Warning: %s timeout is very low (%s); requests may fail under normal network jitter\n", scope, d)
		}
		if d > high {
			fmt.Fprintf(os.Stderr, "Warning: %s timeout is very high (%s); a stuck server will stall the run\n", scope, d)
		}
	}
	warnTimeout("defaults", c.Defaults.Timeout)

	seen := make(map[string]bool, len(c.Servers))
	for i := range c.Servers {
		s := &c.Servers[i]
		if s.Name == "" {
			return fmt.Errorf("servers[%d]: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("server %s: duplicate name", s.Name)
		}
		seen[s.Name] = true

		if s.Timeout < 0 {
			return fmt.Errorf("server %s: timeout must be >= 0", s.Name)
		}
		if s.Timeout == 0 {
			s.Timeout = c.Defaults.Timeout
		}
		if err := checkURL(s.URL); err != nil {
			return fmt.Errorf("server %s: %w", s.Name, err)
		}

		warnTimeout(fmt.Sprintf("server %s", s.Name), s.Timeout)
	}

	return nil
}

func checkURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid url (missing scheme or host)")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url scheme %q (expected http or https)", u.Scheme)
	}
	return nil
}

// Resolve maps the CLI's server argument to an endpoint. A configured name
// wins; anything containing "://" is taken as a literal URL using the
// default timeout. URL validity is left to the RPC client.
func (c *Config) Resolve(target string) (Server, error) {
	for _, s := range c.Servers {
		if s.Name == target {
			return s, nil
		}
	}
	if strings.Contains(target, "://") {
		return Server{Name: target, URL: target, Timeout: c.Defaults.Timeout}, nil
	}
	return Server{}, fmt.Errorf("server %q is neither a configured name nor a URL", target)
}

// Load reads and parses a YAML configuration file, expanding ${VAR}
// references from the environment before parsing, and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOptional is Load, except a missing file yields Default().
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadEnv reads KEY=VALUE lines from path (normally ".env") into the process
// environment. Blank lines and # comments are skipped, surrounding quotes are
// stripped, and a missing file is not an error.
func LoadEnv(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		os.Setenv(strings.TrimSpace(key), strings.Trim(strings.TrimSpace(value), `"'`))
	}
}
