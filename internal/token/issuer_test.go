package token

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilvane/accountd/internal/infrastructure/crypto"
	"github.com/tilvane/accountd/internal/infrastructure/secrets"
	"github.com/tilvane/accountd/pkg/logger"
)

func newTestIssuer(t *testing.T, domain string, opts ...IssuerOption) (*Issuer, *crypto.KeyManager) {
	t.Helper()
	km := crypto.NewKeyManager(secrets.NewMemoryStore(), logger.NewNop())
	return NewIssuer(km, domain, logger.NewNop(), opts...), km
}

func TestIssuer_Audience(t *testing.T) {
	issuer, _ := newTestIssuer(t, "accounts.example.com")
	assert.Equal(t, "urn:com.example.accounts:account:a1", issuer.Audience("a1"))
}

func TestIssuer_Issue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer, km := newTestIssuer(t, "accounts.example.com",
		WithIssuerClock(func() time.Time { return now }))

	origin := Origin{Scheme: "https", Host: "accounts.example.com", Path: "/v1/logins"}
	issued, err := issuer.Issue(context.Background(), "user@example.com",
		map[string]interface{}{"provider": "GOOGLE"}, origin)
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", issued.Claims["sub"])
	assert.Equal(t, "urn:com.example.accounts:account:user@example.com", issued.Claims["aud"])
	assert.Equal(t, "https://accounts.example.com/v1/logins/certs", issued.Claims["iss"])
	assert.Equal(t, "https://accounts.example.com/v1/logins/refresh", issued.Claims["refreshUrl"])
	assert.Equal(t, "GOOGLE", issued.Claims["provider"])
	assert.Equal(t, now.Unix(), issued.Claims["iat"])
	assert.Equal(t, now.Add(10*time.Minute).Unix(), issued.Claims["exp"])

	// The signature verifies against the manager's own public key and the
	// header names the right key.
	pub, err := km.PublicKey(context.Background())
	require.NoError(t, err)

	parsed, err := jwt.Parse(issued.Token, func(tok *jwt.Token) (interface{}, error) {
		return pub.Key, nil
	}, jwt.WithValidMethods([]string{"ES256"}), jwt.WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)
	assert.Equal(t, pub.KeyID, parsed.Header["kid"])
	assert.Equal(t, "JWT", parsed.Header["typ"])
}
