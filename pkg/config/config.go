// Package config loads and validates the YAML configuration that describes
// a decision server: its listeners, its logging and metrics behavior, and
// the resource hierarchy it serves decisions against.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gtriggiano/hierauthz/pkg/logging"
	"gopkg.in/yaml.v3"
)

const defaultShutdownTimeout = 20 * time.Second

// Config models the complete application configuration: the decision API
// listener, the metrics/health listener, logging behavior, the resource
// hierarchy, and graceful shutdown parameters.
type Config struct {
	// Server configures the HTTP decision API listener.
	Server ServerConfig `yaml:"server"`
	// Metrics configures the HTTP server for Prometheus metrics and health endpoints.
	Metrics MetricsConfig `yaml:"metrics"`
	// Logging configures structured logging output and levels.
	Logging logging.Config `yaml:"logging"`
	// Resources maps a resource path to the attributes a hierarchy node
	// carries: its access rule source and an optional description.
	Resources map[string]ResourceConfig `yaml:"resources"`
	// Shutdown controls graceful shutdown behavior.
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

// ResourceConfig is one entry of the "resources" map: the raw access-rule
// expression source text and an optional human description, as read
// directly off a config file node.
type ResourceConfig struct {
	AccessRule  string `yaml:"accessRule"`
	Description string `yaml:"description"`
}

// ServerConfig controls the decision API listener and optional TLS settings.
type ServerConfig struct {
	// Address is the bind address for the HTTP decision API (e.g., ":9001").
	Address string `yaml:"address"`
	// TLS configures optional server-side TLS.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig wraps TLS material locations for server certificates and client verification.
type TLSConfig struct {
	CertFile          string `yaml:"certFile"`
	KeyFile           string `yaml:"keyFile"`
	CAFile            string `yaml:"caFile"`
	RequireClientCert bool   `yaml:"requireClientCert"`
}

// MetricsConfig controls the metrics/health HTTP server.
type MetricsConfig struct {
	// Address is the bind address for the metrics HTTP server (e.g., ":9090").
	Address string `yaml:"address"`
	// HealthPath is the liveness probe endpoint path.
	HealthPath string `yaml:"healthPath"`
	// ReadinessPath is the readiness probe endpoint path.
	ReadinessPath string `yaml:"readinessPath"`
	// DropPrefixes specifies metric name prefixes to filter out from the default Go runtime registry.
	DropPrefixes []string `yaml:"dropPrefixes"`
}

// ShutdownConfig holds graceful shutdown parameters.
type ShutdownConfig struct {
	// Timeout is the maximum duration to wait for graceful shutdown (e.g., "25s").
	Timeout string `yaml:"timeout"`
}

// rawConfig mirrors Config field-for-field except Resources, which
// UnmarshalYAML decodes itself from the raw mapping node so it can detect
// duplicate keys before yaml.v3's default last-write-wins map decoding
// silently drops them.
type rawConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  logging.Config `yaml:"logging"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

// UnmarshalYAML decodes a Config, additionally rejecting a "resources"
// mapping that repeats the same resource path as two distinct keys.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw rawConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.Server = raw.Server
	c.Metrics = raw.Metrics
	c.Logging = raw.Logging
	c.Shutdown = raw.Shutdown

	resourcesNode := findMappingValue(value, "resources")
	if resourcesNode == nil {
		return nil
	}
	resources, err := decodeResources(resourcesNode)
	if err != nil {
		return err
	}
	c.Resources = resources
	return nil
}

// findMappingValue returns the value node paired with key in a mapping
// node, or nil if value is not a mapping or the key is absent.
func findMappingValue(value *yaml.Node, key string) *yaml.Node {
	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == key {
			return value.Content[i+1]
		}
	}
	return nil
}

// decodeResources walks a "resources" mapping node directly (rather than
// through yaml.v3's map decoding) so that a path repeated as two distinct
// keys is caught instead of silently resolving to whichever one was
// decoded last.
func decodeResources(node *yaml.Node) (map[string]ResourceConfig, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("configuration 'resources' must be a mapping")
	}

	seen := make(map[string]struct{}, len(node.Content)/2)
	out := make(map[string]ResourceConfig, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		path := keyNode.Value
		if _, dup := seen[path]; dup {
			return nil, fmt.Errorf("configuration 'resources' repeats path %q", path)
		}
		seen[path] = struct{}{}

		var rc ResourceConfig
		if err := valNode.Decode(&rc); err != nil {
			return nil, fmt.Errorf("configuration 'resources.%s': %w", path, err)
		}
		out[path] = rc
	}
	return out, nil
}

// Load reads, normalizes, and validates a configuration file from the
// specified path. It returns a fully validated Config or an error if
// loading or validation fails.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("a path to a configuration file is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read the configuration file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse the configuration file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures the configuration is ready for use.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Server.validate(); err != nil {
		return err
	}
	if err := c.Metrics.validate(); err != nil {
		return err
	}
	return nil
}

// applyDefaults populates configuration fields with sensible default
// values when they are not explicitly specified in the configuration file.
func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":9001"
	}

	if c.Metrics.Address == "" {
		c.Metrics.Address = ":9090"
	}
	if c.Metrics.HealthPath == "" {
		c.Metrics.HealthPath = "/healthz"
	}
	if c.Metrics.ReadinessPath == "" {
		c.Metrics.ReadinessPath = "/readyz"
	}
	if c.Metrics.DropPrefixes == nil {
		c.Metrics.DropPrefixes = []string{"go_", "process_", "promhttp_"}
	}

	if c.Shutdown.Timeout == "" {
		c.Shutdown.Timeout = "20s"
	}
}

// validate ensures the server address is configured and TLS configuration
// is complete when TLS is enabled.
func (s ServerConfig) validate() error {
	if s.Address == "" {
		return errors.New("configuration 'server.address' is required")
	}
	if s.TLS == nil {
		return nil
	}
	return s.TLS.validate()
}

// validate ensures TLS certificate and key files exist and are accessible.
func (t TLSConfig) validate() error {
	if t.CertFile == "" || t.KeyFile == "" {
		return errors.New("configuration 'server.tls.certFile' and 'server.tls.keyFile' are required when TLS is enabled")
	}
	if t.RequireClientCert && t.CAFile == "" {
		return errors.New("configuration 'server.tls.caFile' is required when 'server.tls.requireClientCert' is true")
	}
	for _, filePath := range []string{t.CertFile, t.KeyFile, t.CAFile} {
		if filePath == "" {
			continue
		}
		if _, err := os.Stat(filePath); err != nil {
			return fmt.Errorf("configuration TLS material %q is not accessible: %w", filePath, err)
		}
	}
	return nil
}

// validate ensures the metrics server address is configured.
func (m MetricsConfig) validate() error {
	if m.Address == "" {
		return errors.New("configuration 'metrics.address' is required")
	}
	return nil
}

// ShutdownTimeout returns the parsed graceful shutdown deadline. It
// defaults to 20 seconds if the timeout string is empty or cannot be
// parsed.
func (c ShutdownConfig) ShutdownTimeout() time.Duration {
	if c.Timeout == "" {
		return defaultShutdownTimeout
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return defaultShutdownTimeout
	}
	return d
}
