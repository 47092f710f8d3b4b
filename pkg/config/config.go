package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config manages agent configuration as a flat key/value map. Values are
// kept as strings; absence is represented by the empty string.
type Config struct {
	mu     sync.RWMutex
	values map[string]string

	// Keys whose change invalidates cached database connections
	reconnectKeys []string
}

// New creates a new configuration manager
func New() *Config {
	return &Config{
		values: make(map[string]string),
		reconnectKeys: []string{
			"host",
			"port",
			"username",
			"password",
			"database",
			"driver",
			"dsn",
			"connection_string",
		},
	}
}

// Load reads a YAML file of scalar key/value pairs into a new Config
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c := New()
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		values[k] = fmt.Sprintf("%v", v)
	}
	c.Update(values)
	return c, nil
}

// Get retrieves a configuration value
func (c *Config) Get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[key]
}

// GetDefault retrieves a configuration value, falling back when unset
func (c *Config) GetDefault(key, fallback string) string {
	if v := c.Get(key); v != "" {
		return v
	}
	return fallback
}

// GetInt retrieves an integer configuration value, falling back when
// unset or unparsable
func (c *Config) GetInt(key string, fallback int) int {
	v := c.Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// GetBool retrieves a boolean configuration value. Accepts the same
// truthy spellings the connection-string validator does.
func (c *Config) GetBool(key string, fallback bool) bool {
	switch strings.ToLower(c.Get(key)) {
	case "yes", "true", "1":
		return true
	case "no", "false", "0":
		return false
	default:
		return fallback
	}
}

// IsSet reports whether a key has a non-empty value
func (c *Config) IsSet(key string) bool {
	return c.Get(key) != ""
}

// GetAll returns a copy of all configuration values
func (c *Config) GetAll() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	copy := make(map[string]string)
	for k, v := range c.values {
		copy[k] = v
	}
	return copy
}

// Update updates configuration values
func (c *Config) Update(values map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range values {
		c.values[k] = v
	}
}

// Set updates a single configuration value
func (c *Config) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// RequiresReconnect checks if any changed keys invalidate cached connections
func (c *Config) RequiresReconnect(oldConfig map[string]string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, key := range c.reconnectKeys {
		if oldConfig[key] != c.values[key] {
			return true
		}
	}

	return false
}

// SetReconnectKeys sets which configuration keys invalidate cached
// connections when changed
func (c *Config) SetReconnectKeys(keys []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnectKeys = keys
}
