package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/tilvane/accountd/pkg/constants"
)

// Load reads the configuration from config.yaml (working directory or
// /etc/accountd/) and ACCOUNTD_-prefixed environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("identity.access_token_ttl", int(constants.DefaultAccessTokenTTL.Seconds()))
	v.SetDefault("identity.refresh_max_age", int(constants.DefaultRefreshMaxAge.Seconds()))
	v.SetDefault("identity.cookie_prefix", constants.DefaultRefreshCookiePrefix)
	v.SetDefault("jwks.cache_ttl", int(constants.DefaultJWKSCacheTTL.Seconds()))
	v.SetDefault("jwks.fetch_timeout", int(constants.DefaultJWKSFetchTimeout.Seconds()))
	v.SetDefault("secrets.driver", "vault")
	v.SetDefault("vault.mount_path", "secret")
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("kafka.topic", "accountd.audit")
	v.SetDefault("log.level", "info")
	v.SetDefault("tracing.service_name", "accountd")
	v.SetDefault("tracing.sampling_rate", 1.0)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/accountd/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("ACCOUNTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
