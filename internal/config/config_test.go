package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tilvane/accountd/pkg/constants"
)

func validConfig() *Config {
	return &Config{
		Identity: IdentityConfig{Domain: "accounts.example.com"},
		Storage:  StorageConfig{Driver: "memory"},
		Secrets:  SecretsConfig{Driver: "memory"},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Identity.Domain = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Storage.Driver = "dynamo"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Secrets.Driver = "kms"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Secrets.Driver = "vault"
	assert.Error(t, cfg.Validate(), "vault driver without an address")
	cfg.Vault.Address = "http://127.0.0.1:8200"
	assert.NoError(t, cfg.Validate())
}

func TestDurationHelpersFallBackToDefaults(t *testing.T) {
	var identity IdentityConfig
	assert.Equal(t, constants.DefaultAccessTokenTTL, identity.AccessTokenTTLDuration())
	assert.Equal(t, constants.DefaultRefreshMaxAge, identity.RefreshMaxAgeDuration())

	identity.AccessTokenTTL = 120
	assert.Equal(t, 2*time.Minute, identity.AccessTokenTTLDuration())

	var jwks JWKSConfig
	assert.Equal(t, constants.DefaultJWKSCacheTTL, jwks.CacheTTLDuration())
	jwks.CacheTTL = 60
	assert.Equal(t, time.Minute, jwks.CacheTTLDuration())
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "accountd",
		Password: "pw",
		Database: "accounts",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=db.internal port=5432 user=accountd password=pw dbname=accounts sslmode=disable",
		db.DSN())
}
