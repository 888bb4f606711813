package medidown

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceConfig is the user-tunable subset of a source's Overrides. Values
// left zero keep the source's built-in defaults.
type SourceConfig struct {
	SocketTimeoutSeconds int    `yaml:"socket_timeout_seconds"`
	Retries              int    `yaml:"retries"`
	ForceFallback        bool   `yaml:"force_fallback"`
	Proxy                string `yaml:"proxy"`
}

// Apply merges the user config over a source's built-in overrides.
func (c SourceConfig) Apply(o Overrides) Overrides {
	if c.SocketTimeoutSeconds > 0 {
		o.SocketTimeout = time.Duration(c.SocketTimeoutSeconds) * time.Second
	}
	if c.Retries > 0 {
		o.Retries = c.Retries
	}
	if c.ForceFallback {
		o.ForceFallback = true
	}
	return o
}

type Config struct {
	// CachePath is where the resolution cache database lives.
	CachePath string `yaml:"cache_path"`
	// CacheTTLHours applies uniformly to every cache entry.
	CacheTTLHours int `yaml:"cache_ttl_hours"`

	UserAgent      string `yaml:"user_agent"`
	AcceptLanguage string `yaml:"accept_language"`
	Proxy          string `yaml:"proxy"`
	// CookieDir holds per-source Netscape cookie files named <source>.txt,
	// maintained by the external session store.
	CookieDir string `yaml:"cookie_dir"`

	Sources map[string]SourceConfig `yaml:"sources"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

func DefaultConfig() Config {
	return Config{
		CachePath:      filepath.Join("cache", "resolutions.db"),
		CacheTTLHours:  24,
		UserAgent:      defaultUserAgent,
		AcceptLanguage: "en-US,en;q=0.9",
		Sources:        map[string]SourceConfig{},
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

// CacheTTL returns the entry lifetime as a duration.
func (c Config) CacheTTL() time.Duration {
	hours := c.CacheTTLHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// CookieFile returns the cookie file path for a source, or "" when the
// session store has none.
func (c Config) CookieFile(source string) string {
	if c.CookieDir == "" {
		return ""
	}
	path := filepath.Join(c.CookieDir, source+".txt")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// SourceOverrides merges any user config for the named source over its
// built-in overrides.
func (c Config) SourceOverrides(name string, builtin Overrides) Overrides {
	if sc, ok := c.Sources[name]; ok {
		return sc.Apply(builtin)
	}
	return builtin
}
