package token

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilvane/accountd/internal/domain/models"
	"github.com/tilvane/accountd/internal/infrastructure/crypto"
	"github.com/tilvane/accountd/internal/infrastructure/records/redisstore"
	"github.com/tilvane/accountd/internal/infrastructure/secrets"
	"github.com/tilvane/accountd/pkg/constants"
	"github.com/tilvane/accountd/pkg/errors"
	"github.com/tilvane/accountd/pkg/logger"
)

func newRefreshFixture(t *testing.T, now func() time.Time) (*RefreshStore, *Issuer) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRefreshStore(redisstore.New(client), constants.DefaultRefreshCookiePrefix,
		constants.DefaultRefreshMaxAge, logger.NewNop(), WithRefreshClock(now))
	km := crypto.NewKeyManager(secrets.NewMemoryStore(), logger.NewNop())
	issuer := NewIssuer(km, "accounts.example.com", logger.NewNop(), WithIssuerClock(now))
	return store, issuer
}

func refreshEvent(t *testing.T, issuer *Issuer, record *models.LoginRecord, cookie string) *Event {
	t.Helper()
	payload, err := record.Payload()
	require.NoError(t, err)
	issued, err := issuer.Issue(context.Background(), record.ID, payload,
		Origin{Scheme: "https", Host: "accounts.example.com", Path: "/v1/logins"})
	require.NoError(t, err)

	headers := map[string]string{"Authorization": "Bearer " + issued.Token}
	if cookie != "" {
		headers["Cookie"] = cookie
	}
	return &Event{Headers: headers, Path: "/v1/logins/refresh"}
}

func testLogin() *models.LoginRecord {
	return &models.LoginRecord{
		ID:       "user@example.com",
		SortKey:  models.LoginSK("GOOGLE", "p1"),
		Email:    "user@example.com",
		Provider: "GOOGLE",
	}
}

func TestRefreshStore_CreateOrRotate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store, _ := newRefreshFixture(t, func() time.Time { return now })
	login := testLogin()
	origin := Origin{Scheme: "https", Host: "accounts.example.com", Path: "/v1/logins"}

	grant, err := store.CreateOrRotate(context.Background(), login.ID, login.SortKey, origin, "")
	require.NoError(t, err)
	assert.NotEmpty(t, grant.Token)

	name := constants.DefaultRefreshCookiePrefix + login.SortKey
	assert.True(t, strings.HasPrefix(grant.Cookie, name+"="+grant.Token))
	assert.Contains(t, grant.Cookie, "Domain=accounts.example.com")
	assert.Contains(t, grant.Cookie, "Path=/")
	assert.Contains(t, grant.Cookie, "HttpOnly")
	assert.Contains(t, grant.Cookie, "Secure")
	assert.Contains(t, grant.Cookie, "SameSite=None")

	// Rotation with the existing token keeps the value and overwrites the
	// record, leaving exactly one live grant.
	again, err := store.CreateOrRotate(context.Background(), login.ID, login.SortKey, origin, grant.Token)
	require.NoError(t, err)
	assert.Equal(t, grant.Token, again.Token)
}

func TestRefreshStore_FetchAndValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store, issuer := newRefreshFixture(t, func() time.Time { return now })
	login := testLogin()
	origin := Origin{Scheme: "https", Host: "accounts.example.com", Path: "/v1/logins"}

	grant, err := store.CreateOrRotate(context.Background(), login.ID, login.SortKey, origin, "")
	require.NoError(t, err)

	cookie := fmt.Sprintf("%s%s=%s", constants.DefaultRefreshCookiePrefix, login.SortKey, grant.Token)
	record, err := store.FetchAndValidate(context.Background(), refreshEvent(t, issuer, login, cookie))
	require.NoError(t, err)
	assert.Equal(t, grant.Token, record.Token)
	assert.Equal(t, login.SortKey, record.Name)
}

func TestRefreshStore_FetchAndValidateFailures(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store, issuer := newRefreshFixture(t, clock)
	login := testLogin()
	origin := Origin{Scheme: "https", Host: "accounts.example.com", Path: "/v1/logins"}

	grant, err := store.CreateOrRotate(context.Background(), login.ID, login.SortKey, origin, "")
	require.NoError(t, err)
	name := constants.DefaultRefreshCookiePrefix + login.SortKey

	t.Run("missing cookie", func(t *testing.T) {
		_, err := store.FetchAndValidate(context.Background(), refreshEvent(t, issuer, login, ""))
		assert.True(t, errors.Is(err, errors.ErrRefreshMismatch))
	})

	t.Run("wrong cookie value", func(t *testing.T) {
		_, err := store.FetchAndValidate(context.Background(),
			refreshEvent(t, issuer, login, name+"=stolen-value"))
		assert.True(t, errors.Is(err, errors.ErrRefreshMismatch))
	})

	t.Run("no record for token claims", func(t *testing.T) {
		other := testLogin()
		other.ID = "other@example.com"
		_, err := store.FetchAndValidate(context.Background(),
			refreshEvent(t, issuer, other, name+"="+grant.Token))
		assert.True(t, errors.Is(err, errors.ErrRecordNotFound))
	})

	t.Run("missing refresh claims", func(t *testing.T) {
		issued, err := issuer.Issue(context.Background(), "user@example.com", nil,
			Origin{Scheme: "https", Host: "accounts.example.com", Path: "/v1/logins"})
		require.NoError(t, err)
		_, err = store.FetchAndValidate(context.Background(), &Event{Headers: map[string]string{
			"Authorization": "Bearer " + issued.Token,
			"Cookie":        name + "=" + grant.Token,
		}})
		assert.True(t, errors.Is(err, errors.ErrRefreshMismatch))
	})

	t.Run("expired record", func(t *testing.T) {
		saved := now
		now = now.Add(constants.DefaultRefreshMaxAge + time.Hour)
		defer func() { now = saved }()
		_, err := store.FetchAndValidate(context.Background(),
			refreshEvent(t, issuer, login, name+"="+grant.Token))
		assert.True(t, errors.Is(err, errors.ErrRefreshMismatch))
	})
}
