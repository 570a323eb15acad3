package secrets

import (
	"context"
	"encoding/base64"
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/tilvane/accountd/internal/config"
	"github.com/tilvane/accountd/pkg/errors"
	"github.com/tilvane/accountd/pkg/logger"
)

// VaultStore persists secrets in a Vault KV v2 mount. Each secret is one
// KV entry holding the base64 value plus the encrypted flag.
type VaultStore struct {
	client *vault.Client
	mount  string
	prefix string
	logger logger.Logger
}

// NewVaultStore builds a VaultStore from the supplied client and config.
func NewVaultStore(cfg config.VaultConfig, client *vault.Client, log logger.Logger) (*VaultStore, error) {
	if client == nil {
		var err error
		vc := vault.DefaultConfig()
		vc.Address = cfg.Address
		client, err = vault.NewClient(vc)
		if err != nil {
			return nil, fmt.Errorf("create vault client: %w", err)
		}
		if cfg.Token != "" {
			client.SetToken(cfg.Token)
		}
	}
	mount := cfg.MountPath
	if mount == "" {
		mount = "secret"
	}
	return &VaultStore{
		client: client,
		mount:  mount,
		prefix: cfg.PathPrefix,
		logger: log.WithComponent("VaultStore"),
	}, nil
}

func (s *VaultStore) path(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// Get reads a secret value. Missing paths and paths without a value field
// both map to ErrSecretNotFound so callers can trigger provisioning.
func (s *VaultStore) Get(ctx context.Context, name string) (string, error) {
	secret, err := s.client.KVv2(s.mount).Get(ctx, s.path(name))
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return "", errors.ErrSecretNotFound
		}
		s.logger.Error(ctx, "failed to read secret from vault", err, logger.String("name", name))
		return "", errors.ErrInternal.WithCause(err)
	}
	if secret == nil || secret.Data == nil {
		return "", errors.ErrSecretNotFound
	}
	value, ok := secret.Data["value"].(string)
	if !ok || value == "" {
		return "", errors.ErrSecretNotFound
	}
	return value, nil
}

// Put stores plaintext base64-encoded and returns the stored value.
func (s *VaultStore) Put(ctx context.Context, name string, plaintext string, encrypted bool) (string, error) {
	value := base64.StdEncoding.EncodeToString([]byte(plaintext))
	_, err := s.client.KVv2(s.mount).Put(ctx, s.path(name), map[string]interface{}{
		"value":     value,
		"encrypted": encrypted,
	})
	if err != nil {
		s.logger.Error(ctx, "failed to write secret to vault", err, logger.String("name", name))
		return "", errors.ErrInternal.WithCause(err)
	}
	return value, nil
}
