package token

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilvane/accountd/internal/infrastructure/crypto"
	"github.com/tilvane/accountd/internal/infrastructure/secrets"
	"github.com/tilvane/accountd/internal/jwks"
	"github.com/tilvane/accountd/pkg/errors"
	"github.com/tilvane/accountd/pkg/logger"
)

// verifierFixture wires an issuer and a verifier through a real JWKS
// endpoint served from the issuer's own key manager.
type verifierFixture struct {
	issuer   *Issuer
	verifier *Verifier
	origin   Origin
}

func newVerifierFixture(t *testing.T, now func() time.Time) *verifierFixture {
	t.Helper()
	km := crypto.NewKeyManager(secrets.NewMemoryStore(), logger.NewNop())

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		set, err := km.KeySet(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)

	domain := u.Hostname()
	cache := jwks.NewCache(logger.NewNop(), jwks.WithClock(now))
	return &verifierFixture{
		issuer:   NewIssuer(km, domain, logger.NewNop(), WithIssuerClock(now)),
		verifier: NewVerifier(cache, domain, logger.NewNop(), WithVerifierClock(now)),
		// The issuer claim must point at the JWKS server, so the origin
		// host carries its port.
		origin: Origin{Scheme: "http", Host: u.Host, Path: ""},
	}
}

func eventWithAuth(value string) *Event {
	return &Event{Headers: map[string]string{"Authorization": value}}
}

func TestVerifier_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fx := newVerifierFixture(t, func() time.Time { return now })

	issued, err := fx.issuer.Issue(context.Background(), "user@example.com",
		map[string]interface{}{"provider": "GOOGLE"}, fx.origin)
	require.NoError(t, err)

	result := fx.verifier.Verify(context.Background(), eventWithAuth("Bearer "+issued.Token))
	require.True(t, result.Authorized, "reason: %s", result.Reason)
	assert.Equal(t, fx.issuer.Audience("user@example.com"), result.Principal)
	assert.Equal(t, "GOOGLE", result.Claims["provider"])
	assert.Equal(t, "user@example.com", result.Claims["sub"])
}

func TestVerifier_ExpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fx := newVerifierFixture(t, func() time.Time { return now })

	issued, err := fx.issuer.Issue(context.Background(), "user@example.com", nil, fx.origin)
	require.NoError(t, err)

	late := NewVerifier(fx.verifier.cache, fx.verifier.domain, logger.NewNop(),
		WithVerifierClock(func() time.Time { return now.Add(11 * time.Minute) }))
	result := late.Verify(context.Background(), eventWithAuth(issued.Token))
	assert.False(t, result.Authorized)
}

func TestVerifier_CredentialExtraction(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fx := newVerifierFixture(t, func() time.Time { return now })

	issued, err := fx.issuer.Issue(context.Background(), "user@example.com", nil, fx.origin)
	require.NoError(t, err)

	tests := []struct {
		name       string
		event      *Event
		authorized bool
	}{
		{"bare token", eventWithAuth(issued.Token), true},
		{"bearer scheme", eventWithAuth("Bearer " + issued.Token), true},
		{"jwt scheme", eventWithAuth("jwt " + issued.Token), true},
		{"lowercase header", &Event{Headers: map[string]string{"authorization": "Bearer " + issued.Token}}, true},
		{"pre-extracted field", &Event{AuthorizationToken: "Bearer " + issued.Token}, true},
		{"lowercase bearer", eventWithAuth("bearer " + issued.Token), false},
		{"unknown scheme", eventWithAuth("Basic " + issued.Token), false},
		{"too many parts", eventWithAuth("Bearer extra " + issued.Token), false},
		{"missing", &Event{Headers: map[string]string{}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := fx.verifier.Verify(context.Background(), tt.event)
			assert.Equal(t, tt.authorized, result.Authorized, "reason: %s", result.Reason)
		})
	}
}

func TestVerifier_IssuerHostCheck(t *testing.T) {
	v := NewVerifier(nil, "example.com", logger.NewNop())

	tests := []struct {
		issuer  string
		allowed bool
	}{
		{"https://example.com/certs", true},
		{"https://accounts.example.com/certs", true},
		{"https://evilexample.com/certs", false},
		{"https://example.com.evil.net/certs", false},
		{"https://unrelated.org/certs", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, v.issuerHostAllowed(tt.issuer), tt.issuer)
	}
}

func TestVerifier_DenialReasonsCarryTaxonomy(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fx := newVerifierFixture(t, func() time.Time { return now })
	ctx := context.Background()

	issued, err := fx.issuer.Issue(ctx, "user@example.com", nil, fx.origin)
	require.NoError(t, err)

	t.Run("malformed credential", func(t *testing.T) {
		result := fx.verifier.Verify(ctx, eventWithAuth("Bearer extra "+issued.Token))
		require.False(t, result.Authorized)
		assert.Equal(t, errors.ErrTokenMalformed.Error(), result.Reason)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		foreign := NewIssuer(crypto.NewKeyManager(secrets.NewMemoryStore(), logger.NewNop()),
			"elsewhere.net", logger.NewNop(), WithIssuerClock(func() time.Time { return now }))
		tok, err := foreign.Issue(ctx, "user@example.com", nil,
			Origin{Scheme: "https", Host: "elsewhere.net", Path: ""})
		require.NoError(t, err)

		result := fx.verifier.Verify(ctx, eventWithAuth("Bearer "+tok.Token))
		require.False(t, result.Authorized)
		assert.Equal(t, errors.ErrIssuerMismatch.Error(), result.Reason)
	})

	t.Run("expired token", func(t *testing.T) {
		late := NewVerifier(fx.verifier.cache, fx.verifier.domain, logger.NewNop(),
			WithVerifierClock(func() time.Time { return now.Add(time.Hour) }))
		result := late.Verify(ctx, eventWithAuth("Bearer "+issued.Token))
		require.False(t, result.Authorized)
		assert.Contains(t, result.Reason, errors.ErrTokenInvalid.Error())
	})
}

func TestVerifier_GarbageToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fx := newVerifierFixture(t, func() time.Time { return now })

	result := fx.verifier.Verify(context.Background(), eventWithAuth("not.a.token"))
	assert.False(t, result.Authorized)
}
