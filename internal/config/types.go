package config

import (
	"time"
)

// ZoneConfig selects the zone file and how it is regenerated.
type ZoneConfig struct {
	File   string `yaml:"file"`
	Marker string `yaml:"marker"`
	// Bump is "always" or "on-change".
	Bump            string `yaml:"bump"`
	CanonicalHeader bool   `yaml:"canonical_header"`
}

// ContentConfig selects the files to publish.
type ContentConfig struct {
	Root string `yaml:"root"`
	// Ignore skips every path containing it. Empty disables skipping.
	Ignore *string `yaml:"ignore"`
}

// IgnorePattern returns the configured ignore substring.
func (c ContentConfig) IgnorePattern() string {
	if c.Ignore == nil {
		return ""
	}
	return *c.Ignore
}

// RecordsConfig controls generated TXT records.
type RecordsConfig struct {
	TTL           uint32 `yaml:"ttl"`
	ChunkLength   int    `yaml:"chunk_length"`
	HashAlgorithm string `yaml:"hash_algorithm"`
}

// ClientConfig controls the read side.
type ClientConfig struct {
	// Server is the DNS server queried by "get", as host:port.
	Server string `yaml:"server"`
	Origin string `yaml:"origin"`
	// Timeout is a duration string such as "3s".
	Timeout string        `yaml:"timeout"`
	Parsed  time.Duration `yaml:"-"`
	// ZoneFile answers reads offline from a zone file instead of DNS.
	ZoneFile string `yaml:"zone_file"`
	// CacheSize caches TXT answers for the records TTL. Zero disables.
	CacheSize int `yaml:"cache_size"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level            string            `yaml:"level"`
	Structured       bool              `yaml:"structured"`
	StructuredFormat string            `yaml:"structured_format"`
	IncludePID       bool              `yaml:"include_pid"`
	ExtraFields      map[string]string `yaml:"extra_fields,omitempty"`
}

// APIConfig contains read gateway settings.
//
// Note: APIKey is a secret and is never returned by API endpoints.
type APIConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	APIKey    string `yaml:"api_key,omitempty"`
	StaticDir string `yaml:"static_dir,omitempty"`
	// RateLimitQPS and RateLimitBurst bound each client IP. Zero disables.
	RateLimitQPS   float64 `yaml:"rate_limit_qps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// LedgerConfig enables the publication ledger when Path is set.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// Config is the root configuration structure.
type Config struct {
	Zone    ZoneConfig    `yaml:"zone"`
	Content ContentConfig `yaml:"content"`
	Records RecordsConfig `yaml:"records"`
	Client  ClientConfig  `yaml:"client"`
	Logging LoggingConfig `yaml:"logging"`
	API     APIConfig     `yaml:"api"`
	Ledger  LedgerConfig  `yaml:"ledger"`
}
