// Package crypto manages the service's ES256 signing key pair. Keys are
// stored in the secret store as base64-encoded JWK JSON under fixed names;
// the public half is always written before the private half so a reader
// that sees a private key can rely on the public key existing.
package crypto

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"sync"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"

	"github.com/tilvane/accountd/internal/infrastructure/secrets"
	"github.com/tilvane/accountd/pkg/constants"
	"github.com/tilvane/accountd/pkg/errors"
	"github.com/tilvane/accountd/pkg/logger"
)

// KeyManager provisions and loads the signing key pair.
type KeyManager struct {
	secrets secrets.Store
	logger  logger.Logger

	// provisionMu serializes lazy provisioning within this process. Two
	// processes racing still converge: both write valid pairs and the
	// later write wins for both halves.
	provisionMu sync.Mutex
}

func NewKeyManager(store secrets.Store, log logger.Logger) *KeyManager {
	return &KeyManager{
		secrets: store,
		logger:  log.WithComponent("KeyManager"),
	}
}

// Signer returns the private signing key and its key id, provisioning a
// fresh pair on first use.
func (m *KeyManager) Signer(ctx context.Context) (*ecdsa.PrivateKey, string, error) {
	jwk, err := m.loadKey(ctx, constants.SecretJWTPrivateKey)
	if err == nil {
		priv, ok := jwk.Key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, "", errors.ErrInternal.WithMessagef("stored private key is not an EC key")
		}
		return priv, jwk.KeyID, nil
	}
	if !errors.Is(err, errors.ErrSecretNotFound) {
		return nil, "", err
	}

	m.provisionMu.Lock()
	defer m.provisionMu.Unlock()

	// Re-check under the lock; another goroutine may have provisioned.
	jwk, err = m.loadKey(ctx, constants.SecretJWTPrivateKey)
	if err == nil {
		priv, ok := jwk.Key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, "", errors.ErrInternal.WithMessagef("stored private key is not an EC key")
		}
		return priv, jwk.KeyID, nil
	}
	if !errors.Is(err, errors.ErrSecretNotFound) {
		return nil, "", err
	}

	priv, kid, err := m.provision(ctx)
	if err != nil {
		return nil, "", err
	}
	return priv, kid, nil
}

// PublicKey returns the public signing key. It never provisions: a caller
// asking for certs before any token was issued gets ErrKeyNotProvisioned.
func (m *KeyManager) PublicKey(ctx context.Context) (jose.JSONWebKey, error) {
	jwk, err := m.loadKey(ctx, constants.SecretJWTPublicKey)
	if err != nil {
		if errors.Is(err, errors.ErrSecretNotFound) {
			return jose.JSONWebKey{}, errors.ErrKeyNotProvisioned
		}
		return jose.JSONWebKey{}, err
	}
	return jwk, nil
}

// KeySet returns the public key wrapped as a JWKS document.
func (m *KeyManager) KeySet(ctx context.Context) (*jose.JSONWebKeySet, error) {
	pub, err := m.PublicKey(ctx)
	if err != nil {
		return nil, err
	}
	return &jose.JSONWebKeySet{Keys: []jose.JSONWebKey{pub}}, nil
}

// Rotate generates and stores a new key pair unconditionally, returning
// the new public key. Verifiers pick it up when their cached JWKS expires.
func (m *KeyManager) Rotate(ctx context.Context) (jose.JSONWebKey, error) {
	m.provisionMu.Lock()
	defer m.provisionMu.Unlock()

	priv, kid, err := m.provision(ctx)
	if err != nil {
		return jose.JSONWebKey{}, err
	}
	return jose.JSONWebKey{
		Key:       priv.Public(),
		KeyID:     kid,
		Algorithm: string(jose.ES256),
		Use:       "sig",
	}, nil
}

func (m *KeyManager) provision(ctx context.Context) (*ecdsa.PrivateKey, string, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, "", errors.ErrInternal.WithCause(err)
	}
	kid := uuid.NewString()

	pub := jose.JSONWebKey{Key: priv.Public(), KeyID: kid, Algorithm: string(jose.ES256), Use: "sig"}
	if err := m.storeKey(ctx, constants.SecretJWTPublicKey, pub); err != nil {
		return nil, "", err
	}

	pk := jose.JSONWebKey{Key: priv, KeyID: kid, Algorithm: string(jose.ES256), Use: "sig"}
	if err := m.storeKey(ctx, constants.SecretJWTPrivateKey, pk); err != nil {
		return nil, "", err
	}

	m.logger.Info(ctx, "provisioned new signing key pair", logger.String("kid", kid))
	return priv, kid, nil
}

func (m *KeyManager) storeKey(ctx context.Context, name string, jwk jose.JSONWebKey) error {
	data, err := jwk.MarshalJSON()
	if err != nil {
		return errors.ErrInternal.WithCause(err)
	}
	if _, err := m.secrets.Put(ctx, name, string(data), true); err != nil {
		return err
	}
	return nil
}

func (m *KeyManager) loadKey(ctx context.Context, name string) (jose.JSONWebKey, error) {
	encoded, err := m.secrets.Get(ctx, name)
	if err != nil {
		return jose.JSONWebKey{}, err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return jose.JSONWebKey{}, errors.ErrInternal.WithCause(err)
	}
	var jwk jose.JSONWebKey
	if err := json.Unmarshal(raw, &jwk); err != nil {
		return jose.JSONWebKey{}, errors.ErrInternal.WithCause(err)
	}
	return jwk, nil
}
