// Package config loads and validates the zonepress configuration.
//
// Configuration is a YAML file. Every field has a default, so running without
// a file is valid; command line flags override individual values afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/jroosing/zonepress/internal/content"
	"github.com/jroosing/zonepress/internal/records"
	"github.com/jroosing/zonepress/internal/source"
	"github.com/jroosing/zonepress/internal/zone"
)

// EnvConfigPath names the environment variable consulted when no --config flag is given.
const EnvConfigPath = "ZONEPRESS_CONFIG"

// ResolveConfigPath returns the flag value, else $ZONEPRESS_CONFIG, else "".
func ResolveConfigPath(flag string) string {
	if p := strings.TrimSpace(flag); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(EnvConfigPath))
}

// Default returns a validated configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	// defaults never fail validation
	_ = cfg.Validate()
	return cfg
}

// Load reads the YAML file at path. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate validates and normalizes the configuration.
func (cfg *Config) Validate() error {
	// Zone
	if cfg.Zone.Marker == "" {
		cfg.Zone.Marker = zone.DefaultMarker
	}
	policy, err := zone.ParseBumpPolicy(cfg.Zone.Bump)
	if err != nil {
		return fmt.Errorf("zone.bump: %w", err)
	}
	cfg.Zone.Bump = string(policy)

	// Content
	if cfg.Content.Root == "" {
		cfg.Content.Root = "content"
	}
	if cfg.Content.Ignore == nil {
		ignore := source.DefaultIgnore
		cfg.Content.Ignore = &ignore
	}

	// Records
	if cfg.Records.TTL == 0 {
		cfg.Records.TTL = records.DefaultTTL
	}
	if cfg.Records.ChunkLength == 0 {
		cfg.Records.ChunkLength = records.DefaultChunkLength
	}
	if err := records.ValidateChunkLength(cfg.Records.ChunkLength); err != nil {
		return fmt.Errorf("records.chunk_length: %w", err)
	}
	if cfg.Records.HashAlgorithm == "" {
		cfg.Records.HashAlgorithm = content.DefaultAlgorithm
	}
	alg, err := content.LookupAlgorithm(cfg.Records.HashAlgorithm)
	if err != nil {
		return fmt.Errorf("records.hash_algorithm: %w", err)
	}
	if err := records.ValidateAlgorithm(alg); err != nil {
		return fmt.Errorf("records.hash_algorithm: %w", err)
	}
	cfg.Records.HashAlgorithm = alg.Name

	// Client
	if cfg.Client.Server == "" {
		cfg.Client.Server = "127.0.0.1:53"
	}
	if cfg.Client.Timeout == "" {
		cfg.Client.Timeout = "3s"
	}
	d, err := time.ParseDuration(cfg.Client.Timeout)
	if err != nil || d <= 0 {
		return fmt.Errorf("client.timeout: invalid duration %q", cfg.Client.Timeout)
	}
	cfg.Client.Parsed = d
	if cfg.Client.CacheSize < 0 {
		return errors.New("client.cache_size must be >= 0")
	}

	// Normalize logging
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.StructuredFormat == "" {
		cfg.Logging.StructuredFormat = "json"
	}
	if cfg.Logging.ExtraFields == nil {
		cfg.Logging.ExtraFields = map[string]string{}
	}

	// Normalize read gateway
	if cfg.API.Host == "" {
		cfg.API.Host = "127.0.0.1"
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 8080
	}
	if cfg.API.Port < 0 || cfg.API.Port > 65535 {
		return errors.New("api.port must be 1..65535")
	}
	if cfg.API.RateLimitQPS < 0 || cfg.API.RateLimitBurst < 0 {
		return errors.New("api rate limits must be >= 0")
	}

	return nil
}
