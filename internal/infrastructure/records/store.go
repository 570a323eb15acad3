// Package records defines the key-value record store the account, login
// and refresh records live in. Records are addressed by a partition key
// (the record id) and a sort key, and carry an opaque JSON payload.
package records

import (
	"context"
	"encoding/json"
)

// Record is one stored item.
type Record struct {
	ID   string
	SK   string
	Data []byte
}

// Decode unmarshals the record payload into v.
func (r *Record) Decode(v interface{}) error {
	return json.Unmarshal(r.Data, v)
}

// Store is the record store contract. Implementations map the (ID, SK)
// pair onto their backend's native addressing.
type Store interface {
	// Get fetches one record, or errors.ErrRecordNotFound.
	Get(ctx context.Context, id, sk string) (*Record, error)

	// Create stores a record. With overwrite false an existing record at
	// the same address yields errors.ErrConflict.
	Create(ctx context.Context, rec *Record, overwrite bool) error

	// Update replaces an existing record, or errors.ErrRecordNotFound.
	Update(ctx context.Context, rec *Record) error

	// Delete removes a record, or errors.ErrRecordNotFound.
	Delete(ctx context.Context, id, sk string) error

	// QueryPrefix returns all records under id whose sort key starts with
	// prefix, in sort-key order.
	QueryPrefix(ctx context.Context, id, prefix string) ([]*Record, error)
}

// Marshaler is implemented by model types that serialize themselves into
// a record payload.
type Marshaler interface {
	SK() string
	MarshalRecord() ([]byte, error)
}

// NewRecord builds a Record from a model under the given partition key.
func NewRecord(id string, m Marshaler) (*Record, error) {
	data, err := m.MarshalRecord()
	if err != nil {
		return nil, err
	}
	return &Record{ID: id, SK: m.SK(), Data: data}, nil
}
