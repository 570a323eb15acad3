// Package secrets provides the key-value secret store the signing keys live
// in. Values are base64-encoded at rest; Get returns the encoded form and
// Put returns the stored (encoded) value so callers can round-trip exactly
// what was persisted.
package secrets

import "context"

// Store is the secret store contract.
type Store interface {
	// Get returns the stored base64 value, or errors.ErrSecretNotFound.
	Get(ctx context.Context, name string) (string, error)

	// Put base64-encodes and stores plaintext under name, returning the
	// stored value. The encrypted flag is advisory for backends that
	// distinguish encrypted storage classes.
	Put(ctx context.Context, name string, plaintext string, encrypted bool) (string, error)
}
