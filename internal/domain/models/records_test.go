package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginSortKeys(t *testing.T) {
	sk := LoginSK("GOOGLE", "108123456789")
	assert.Equal(t, "login_GOOGLE_108123456789", sk)

	rec := &LoginRecord{ID: "user@example.com", SortKey: sk}
	assert.Equal(t, sk, rec.SK())

	assert.Equal(t, "jwt_refresh_login_GOOGLE_108123456789", RefreshSK(sk))
}

func TestLoginPayloadCarriesRowKeys(t *testing.T) {
	rec := &LoginRecord{
		ID:       "user@example.com",
		SortKey:  LoginSK("GOOGLE", "108123456789"),
		Email:    "user@example.com",
		Provider: "GOOGLE",
		IDToken:  "opaque",
	}

	payload, err := rec.Payload()
	require.NoError(t, err)

	// The row keys ride along as claims so the refresh path can locate the
	// login again from a decoded token.
	assert.Equal(t, "user@example.com", payload["id"])
	assert.Equal(t, rec.SortKey, payload["sk"])
	assert.Equal(t, "opaque", payload["idToken"])
}

func TestRefreshRecordExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	rec := &RefreshRecord{Name: "login_GOOGLE_1", Expires: now.Unix() + 60}
	assert.Equal(t, "jwt_refresh_login_GOOGLE_1", rec.SK())
	assert.False(t, rec.Expired(now))
	assert.True(t, rec.Expired(now.Add(2*time.Minute)))

	// Zero expiry means no server-side bound.
	unbounded := &RefreshRecord{Name: "login_GOOGLE_1"}
	assert.False(t, unbounded.Expired(now))
}

func TestAccountRecordSK(t *testing.T) {
	rec := &AccountRecord{ID: "user@example.com"}
	assert.Equal(t, "primary", rec.SK())
}
