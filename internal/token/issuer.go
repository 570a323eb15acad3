package token

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tilvane/accountd/internal/infrastructure/crypto"
	"github.com/tilvane/accountd/pkg/constants"
	"github.com/tilvane/accountd/pkg/errors"
	"github.com/tilvane/accountd/pkg/logger"
)

// IssuedToken is a signed token together with the exact claim map that was
// signed, so callers can audit it without re-decoding.
type IssuedToken struct {
	Token  string
	Claims map[string]interface{}
}

// Issuer mints short-lived ES256 identity tokens.
type Issuer struct {
	keys   *crypto.KeyManager
	domain string
	ttl    time.Duration
	clock  func() time.Time
	logger logger.Logger
}

// IssuerOption tweaks issuer construction.
type IssuerOption func(*Issuer)

func WithIssuerClock(clock func() time.Time) IssuerOption {
	return func(i *Issuer) { i.clock = clock }
}

func WithIssuerTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) { i.ttl = ttl }
}

func NewIssuer(keys *crypto.KeyManager, domain string, log logger.Logger, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		keys:   keys,
		domain: domain,
		ttl:    constants.DefaultAccessTokenTTL,
		clock:  time.Now,
		logger: log.WithComponent("TokenIssuer"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Audience builds the audience URN for a subject from the service domain,
// with the domain labels reversed: accounts.example.com becomes
// urn:com.example.accounts:account:<subject>.
func (i *Issuer) Audience(subject string) string {
	labels := strings.Split(i.domain, ".")
	for l, r := 0, len(labels)-1; l < r; l, r = l+1, r-1 {
		labels[l], labels[r] = labels[r], labels[l]
	}
	return "urn:" + strings.Join(labels, ".") + ":account:" + subject
}

// Issue signs a token for subject with the given extra payload claims.
// The issuer and refresh URLs are derived from the request origin.
func (i *Issuer) Issue(ctx context.Context, subject string, payload map[string]interface{}, origin Origin) (*IssuedToken, error) {
	priv, kid, err := i.keys.Signer(ctx)
	if err != nil {
		return nil, err
	}

	now := i.clock()
	claims := jwt.MapClaims{}
	for k, v := range payload {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["aud"] = i.Audience(subject)
	claims["iss"] = origin.BaseURL() + constants.CertsPathSuffix
	claims["refreshUrl"] = origin.BaseURL() + constants.RefreshPathSuffix
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(i.ttl).Unix()

	tok := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	tok.Header["typ"] = "JWT"
	tok.Header["kid"] = kid

	signed, err := tok.SignedString(priv)
	if err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}

	i.logger.Debug(ctx, "issued token",
		logger.String("sub", subject), logger.String("kid", kid))
	return &IssuedToken{Token: signed, Claims: map[string]interface{}(claims)}, nil
}
