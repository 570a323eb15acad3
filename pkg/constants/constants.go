// Package constants defines the shared constants for the accountd identity service.
package constants

import "time"

// Secret names under which the signing key pair is stored.
const (
	SecretJWTPrivateKey = "jwtPrivateKey"
	SecretJWTPublicKey  = "jwtPublicKey"
)

// Record sort-key layout in the accounts table.
const (
	// LoginRecordPrefix prefixes the sort key of a federated login row:
	// login_<provider>_<providerUserID>.
	LoginRecordPrefix = "login_"

	// RefreshRecordPrefix prefixes the sort key of a refresh-token row:
	// jwt_refresh_<loginSortKey>.
	RefreshRecordPrefix = "jwt_refresh_"

	// AccountPrimarySK is the sort key of the primary account row.
	AccountPrimarySK = "primary"
)

// DefaultRefreshCookiePrefix names the refresh cookie. The login sort key is
// appended so each linked provider gets its own cookie. The __Secure- prefix
// makes browsers reject the cookie on plain HTTP.
const DefaultRefreshCookiePrefix = "__Secure-jrt_"

// Token lifetimes.
const (
	// DefaultAccessTokenTTL bounds the validity of issued identity tokens.
	DefaultAccessTokenTTL = 10 * time.Minute

	// DefaultRefreshMaxAge bounds refresh cookies and records.
	DefaultRefreshMaxAge = 30 * 24 * time.Hour

	// DefaultJWKSCacheTTL bounds how long a fetched remote key set is reused.
	DefaultJWKSCacheTTL = 6 * time.Hour

	// DefaultJWKSFetchTimeout bounds a single remote key-set fetch.
	DefaultJWKSFetchTimeout = 10 * time.Second
)

// Path suffixes appended to the issuing origin when building token claims.
const (
	CertsPathSuffix   = "/certs"
	RefreshPathSuffix = "/refresh"
)

// AuthScheme values accepted as the prefix of an Authorization credential.
// Matching is case-sensitive.
var AuthSchemes = []string{"Bearer", "jwt"}

// SensitiveKeys lists claim and log field names (lowercase) whose values are
// never embedded in tokens and always redacted in logs.
var SensitiveKeys = []string{
	"password",
	"key",
	"x-api-key",
	"api-key",
	"token",
	"secret",
	"authtoken",
	"idtoken",
}

// ClaimAccountID is the token claim carrying the account id; it mirrors
// the login record's partition key.
const ClaimAccountID = "id"

// ContextKey is the type for request-scoped context values.
type ContextKey string

const (
	// ContextKeyRequestID carries the per-request correlation id.
	ContextKeyRequestID ContextKey = "request_id"
	// ContextKeyPrincipal carries the verified token audience.
	ContextKeyPrincipal ContextKey = "principal"
	// ContextKeyClaims carries the verified token claims.
	ContextKeyClaims ContextKey = "claims"
)
