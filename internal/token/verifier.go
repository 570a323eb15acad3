package token

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tilvane/accountd/internal/jwks"
	"github.com/tilvane/accountd/pkg/constants"
	"github.com/tilvane/accountd/pkg/errors"
	"github.com/tilvane/accountd/pkg/logger"
)

// Result is the terminal outcome of one verification. A denied result
// carries a reason for logging; it is never surfaced to the caller as an
// error.
type Result struct {
	Authorized bool
	Principal  string
	Claims     map[string]interface{}
	Reason     string
}

// denied turns a taxonomy error into a terminal denial, keeping the
// error's message as the loggable reason.
func denied(err error) Result {
	return Result{Reason: err.Error()}
}

// Verifier checks inbound access tokens against cached issuer key sets.
type Verifier struct {
	cache  *jwks.Cache
	domain string
	clock  func() time.Time
	logger logger.Logger
}

// VerifierOption tweaks verifier construction.
type VerifierOption func(*Verifier)

func WithVerifierClock(clock func() time.Time) VerifierOption {
	return func(v *Verifier) { v.clock = clock }
}

func NewVerifier(cache *jwks.Cache, domain string, log logger.Logger, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		cache:  cache,
		domain: domain,
		clock:  time.Now,
		logger: log.WithComponent("TokenVerifier"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify runs the verification state machine over the event. It never
// mutates state and never returns an error; every failure is a denial.
func (v *Verifier) Verify(ctx context.Context, ev *Event) Result {
	raw, err := extractToken(ev)
	if err != nil {
		return denied(err)
	}

	issuer, err := unverifiedIssuer(raw)
	if err != nil {
		return denied(err)
	}

	if !v.issuerHostAllowed(issuer) {
		v.logger.Warn(ctx, "token issuer outside service domain", logger.String("iss", issuer))
		return denied(errors.ErrIssuerMismatch)
	}

	keys, err := v.cache.Resolve(ctx, issuer)
	if err != nil {
		v.logger.Warn(ctx, "jwks resolve failed", logger.String("iss", issuer), logger.Err(err))
		return denied(err)
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, keyFor(keys),
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithTimeFunc(v.clock),
	)
	if err != nil {
		return denied(errors.ErrTokenInvalid.WithCause(err))
	}

	aud, err := claims.GetAudience()
	if err != nil || len(aud) == 0 {
		return denied(errors.ErrTokenInvalid.WithMessagef("token carries no audience"))
	}

	return Result{
		Authorized: true,
		Principal:  aud[0],
		Claims:     map[string]interface{}(claims),
	}
}

// extractToken pulls the bearer credential out of the event and strips an
// allowed scheme prefix. Scheme matching is case-sensitive.
func extractToken(ev *Event) (string, error) {
	cred := ev.Credential()
	if cred == "" {
		return "", errors.ErrTokenMalformed.WithMessagef("missing authorization credential")
	}
	parts := strings.Split(cred, " ")
	switch len(parts) {
	case 1:
		return parts[0], nil
	case 2:
		for _, scheme := range constants.AuthSchemes {
			if parts[0] == scheme {
				return parts[1], nil
			}
		}
		return "", errors.ErrTokenMalformed.WithMessagef("unsupported authorization scheme")
	default:
		return "", errors.ErrTokenMalformed
	}
}

// unverifiedIssuer reads the iss claim before any signature check. The
// value is untrusted until the signature verifies against its key set.
func unverifiedIssuer(raw string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return "", errors.ErrTokenMalformed.WithMessagef("credential is not a decodable token")
	}
	issuer, err := claims.GetIssuer()
	if err != nil || issuer == "" {
		return "", errors.ErrTokenMalformed.WithMessagef("token carries no issuer")
	}
	return issuer, nil
}

// issuerHostAllowed requires the issuer hostname to equal the service
// domain or be a subdomain of it. Suffix anchoring matters: a bare
// substring check would admit hostnames that merely embed the domain.
func (v *Verifier) issuerHostAllowed(issuer string) bool {
	u, err := url.Parse(issuer)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == v.domain || strings.HasSuffix(host, "."+v.domain)
}

func keyFor(keys *jose.JSONWebKeySet) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token header missing kid")
		}
		matches := keys.Key(kid)
		if len(matches) == 0 {
			return nil, fmt.Errorf("no key for kid %q", kid)
		}
		return matches[0].Key, nil
	}
}
