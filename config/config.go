// Package config loads the typecodec configuration file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"typecodec/codec"
	"typecodec/logging"
	"typecodec/registry"
)

// Config is the root of the configuration file.
type Config struct {
	Logging logging.Config         `yaml:"logging"`
	Codec   codec.Options          `yaml:"codec"`
	Catalog registry.CatalogConfig `yaml:"catalog"`
}

// Load reads configuration from a YAML file.
//
// The loading order is:
//  1. Default values
//  2. YAML file values
//  3. Environment variables, named TYPECODEC_SECTION_KEY
//
// The result is validated before it is returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse is Load for configuration already in memory.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Codec: codec.Options{
			Wire:             "json",
			FallbackLogRate:  codec.DefaultFallbackLogRate,
			FallbackLogBurst: codec.DefaultFallbackLogBurst,
		},
		Catalog: registry.CatalogConfig{
			Endpoints:   []string{"localhost:2379"},
			Prefix:      registry.DefaultCatalogPrefix,
			TTL:         registry.DefaultCatalogTTL,
			DialTimeout: registry.DefaultDialTimeout,
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	// Logging
	if v := os.Getenv("TYPECODEC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TYPECODEC_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Codec
	if v := os.Getenv("TYPECODEC_CODEC_WIRE"); v != "" {
		cfg.Codec.Wire = v
	}
	if v := os.Getenv("TYPECODEC_CODEC_DISABLE_UUID_DETECTION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TYPECODEC_CODEC_DISABLE_UUID_DETECTION: %w", err)
		}
		cfg.Codec.DisableUUIDDetection = b
	}

	// Catalog
	if v := os.Getenv("TYPECODEC_ETCD_ENDPOINTS"); v != "" {
		cfg.Catalog.Endpoints = splitList(v)
	}
	if v := os.Getenv("TYPECODEC_CATALOG_PREFIX"); v != "" {
		cfg.Catalog.Prefix = v
	}
	if v := os.Getenv("TYPECODEC_CATALOG_NODE"); v != "" {
		cfg.Catalog.Node = v
	}
	if v := os.Getenv("TYPECODEC_CATALOG_TTL"); v != "" {
		ttl, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TYPECODEC_CATALOG_TTL: %w", err)
		}
		cfg.Catalog.TTL = ttl
	}
	if v := os.Getenv("TYPECODEC_ETCD_DIAL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TYPECODEC_ETCD_DIAL_TIMEOUT: %w", err)
		}
		cfg.Catalog.DialTimeout = d
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var err error
	err = multierr.Append(err, c.Logging.Validate())
	err = multierr.Append(err, c.Codec.Validate())

	if len(c.Catalog.Endpoints) == 0 {
		err = multierr.Append(err, fmt.Errorf("catalog.endpoints is required"))
	}
	if c.Catalog.Prefix == "" || strings.Contains(c.Catalog.Prefix, "/") {
		err = multierr.Append(err, fmt.Errorf("catalog.prefix must be a non-empty name without '/'"))
	}
	if c.Catalog.TTL <= 0 {
		err = multierr.Append(err, fmt.Errorf("catalog.ttl must be positive"))
	}
	if c.Catalog.DialTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("catalog.dial_timeout must be positive"))
	}
	return err
}

// NewEncoder creates an Encoder configured by c.Codec that logs to logger.
func (c *Config) NewEncoder(logger *zap.Logger) *codec.Encoder {
	return codec.NewEncoder(codec.WithOptions(c.Codec), codec.WithLogger(logger))
}

// NewDecoder creates a Decoder configured by c.Codec that resolves in r.
func (c *Config) NewDecoder(logger *zap.Logger, r registry.Resolver) *codec.Decoder {
	return codec.NewDecoder(codec.WithOptions(c.Codec), codec.WithLogger(logger), codec.WithResolver(r))
}
