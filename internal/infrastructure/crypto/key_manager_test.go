package crypto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilvane/accountd/internal/infrastructure/secrets"
	"github.com/tilvane/accountd/pkg/constants"
	"github.com/tilvane/accountd/pkg/errors"
	"github.com/tilvane/accountd/pkg/logger"
)

func TestKeyManager_LazyProvision(t *testing.T) {
	store := secrets.NewMemoryStore()
	km := NewKeyManager(store, logger.NewNop())
	ctx := context.Background()

	priv, kid, err := km.Signer(ctx)
	require.NoError(t, err)
	require.NotNil(t, priv)
	assert.NotEmpty(t, kid)

	// Both halves are stored, under the same kid.
	pub, err := km.PublicKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, kid, pub.KeyID)
	assert.True(t, pub.Valid())
	assert.True(t, pub.IsPublic())

	// A second call loads the same key rather than provisioning again.
	priv2, kid2, err := km.Signer(ctx)
	require.NoError(t, err)
	assert.Equal(t, kid, kid2)
	assert.True(t, priv.Equal(priv2))
}

func TestKeyManager_PublicKeyNeverProvisions(t *testing.T) {
	store := secrets.NewMemoryStore()
	km := NewKeyManager(store, logger.NewNop())
	ctx := context.Background()

	_, err := km.PublicKey(ctx)
	assert.True(t, errors.Is(err, errors.ErrKeyNotProvisioned))

	// Still nothing stored.
	_, err = store.Get(ctx, constants.SecretJWTPublicKey)
	assert.True(t, errors.Is(err, errors.ErrSecretNotFound))
}

func TestKeyManager_Rotate(t *testing.T) {
	store := secrets.NewMemoryStore()
	km := NewKeyManager(store, logger.NewNop())
	ctx := context.Background()

	_, kid1, err := km.Signer(ctx)
	require.NoError(t, err)

	pub, err := km.Rotate(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, kid1, pub.KeyID)

	// The signer now returns the rotated key.
	_, kid2, err := km.Signer(ctx)
	require.NoError(t, err)
	assert.Equal(t, pub.KeyID, kid2)

	set, err := km.KeySet(ctx)
	require.NoError(t, err)
	require.Len(t, set.Keys, 1)
	assert.Equal(t, kid2, set.Keys[0].KeyID)
}
