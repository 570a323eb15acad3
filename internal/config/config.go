// Package config holds the service configuration and its loader.
package config

import (
	"fmt"
	"time"

	"github.com/tilvane/accountd/pkg/constants"
)

// Config holds the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Identity IdentityConfig `mapstructure:"identity"`
	JWKS     JWKSConfig     `mapstructure:"jwks"`
	Secrets  SecretsConfig  `mapstructure:"secrets"`
	Vault    VaultConfig    `mapstructure:"vault"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	Debug        bool   `mapstructure:"debug"`
}

// IdentityConfig controls token issuance and refresh behavior.
type IdentityConfig struct {
	// Domain is the service's DNS domain. Token audiences are derived from
	// it and inbound issuers must belong to it.
	Domain string `mapstructure:"domain"`

	GoogleClientID string `mapstructure:"google_client_id"`

	AccessTokenTTL int    `mapstructure:"access_token_ttl"` // in seconds
	RefreshMaxAge  int    `mapstructure:"refresh_max_age"`  // in seconds
	CookiePrefix   string `mapstructure:"cookie_prefix"`
}

type JWKSConfig struct {
	CacheTTL     int `mapstructure:"cache_ttl"`     // in seconds
	FetchTimeout int `mapstructure:"fetch_timeout"` // in seconds
}

// SecretsConfig selects the secret store backend: "vault" or "memory".
type SecretsConfig struct {
	Driver string `mapstructure:"driver"`
}

type VaultConfig struct {
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	MountPath  string `mapstructure:"mount_path"`
	PathPrefix string `mapstructure:"path_prefix"`
}

// StorageConfig selects the record store backend: "postgres" or "redis".
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DSN builds the postgres connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

// AccessTokenTTLDuration returns the access-token lifetime as a duration.
func (c *IdentityConfig) AccessTokenTTLDuration() time.Duration {
	if c.AccessTokenTTL <= 0 {
		return constants.DefaultAccessTokenTTL
	}
	return time.Duration(c.AccessTokenTTL) * time.Second
}

// RefreshMaxAgeDuration returns the refresh lifetime as a duration.
func (c *IdentityConfig) RefreshMaxAgeDuration() time.Duration {
	if c.RefreshMaxAge <= 0 {
		return constants.DefaultRefreshMaxAge
	}
	return time.Duration(c.RefreshMaxAge) * time.Second
}

// CacheTTLDuration returns the JWKS cache lifetime as a duration.
func (c *JWKSConfig) CacheTTLDuration() time.Duration {
	if c.CacheTTL <= 0 {
		return constants.DefaultJWKSCacheTTL
	}
	return time.Duration(c.CacheTTL) * time.Second
}

// FetchTimeoutDuration returns the JWKS fetch timeout as a duration.
func (c *JWKSConfig) FetchTimeoutDuration() time.Duration {
	if c.FetchTimeout <= 0 {
		return constants.DefaultJWKSFetchTimeout
	}
	return time.Duration(c.FetchTimeout) * time.Second
}

// Validate checks the essential values.
func (c *Config) Validate() error {
	if c.Identity.Domain == "" {
		return fmt.Errorf("identity.domain is required")
	}
	switch c.Storage.Driver {
	case "postgres", "redis", "memory":
	default:
		return fmt.Errorf("storage.driver must be postgres, redis or memory, got %q", c.Storage.Driver)
	}
	switch c.Secrets.Driver {
	case "vault", "memory":
	default:
		return fmt.Errorf("secrets.driver must be vault or memory, got %q", c.Secrets.Driver)
	}
	if c.Secrets.Driver == "vault" && c.Vault.Address == "" {
		return fmt.Errorf("vault.address is required when secrets.driver is vault")
	}
	return nil
}
