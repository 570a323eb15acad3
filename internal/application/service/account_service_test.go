package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilvane/accountd/internal/infrastructure/records/redisstore"
	"github.com/tilvane/accountd/pkg/errors"
	"github.com/tilvane/accountd/pkg/logger"
)

func newAccountService(t *testing.T) *AccountService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAccountService(redisstore.New(client), logger.NewNop())
}

func TestAccountService_CreateAndGet(t *testing.T) {
	svc := newAccountService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user@example.com", &CreateAccountRequest{
		Email: "user@example.com", Name: "Test User", Company: "Acme",
	})
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := svc.Get(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Test User", got.Name)
	assert.Equal(t, "Acme", got.Company)

	// Creating the same account again conflicts.
	_, err = svc.Create(ctx, "user@example.com", &CreateAccountRequest{
		Email: "user@example.com", Name: "Other",
	})
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestAccountService_Update(t *testing.T) {
	svc := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, "ghost@example.com", &UpdateAccountRequest{})
	assert.True(t, errors.Is(err, errors.ErrRecordNotFound))

	_, err = svc.Create(ctx, "user@example.com", &CreateAccountRequest{
		Email: "user@example.com", Name: "Test User", Company: "Acme",
	})
	require.NoError(t, err)

	empty := ""
	name := "Renamed"
	updated, err := svc.Update(ctx, "user@example.com", &UpdateAccountRequest{
		Name: &name, Company: &empty,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "", updated.Company)
	assert.Equal(t, "user@example.com", updated.Email)
}
