package secrets

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilvane/accountd/pkg/errors"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	stored, err := store.Put(ctx, "jwtPrivateKey", `{"kty":"EC"}`, true)
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte(`{"kty":"EC"}`)), stored)

	got, err := store.Get(ctx, "jwtPrivateKey")
	require.NoError(t, err)
	assert.Equal(t, stored, got)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, errors.ErrSecretNotFound))
}
