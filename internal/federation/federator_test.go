package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilvane/accountd/pkg/errors"
	"github.com/tilvane/accountd/pkg/logger"
)

type stubVerifier struct {
	err error
}

func (s *stubVerifier) Verify(context.Context, string) error { return s.err }

func TestFederator_Dispatch(t *testing.T) {
	f := NewFederator(logger.NewNop())
	f.Register("GOOGLE", &stubVerifier{})
	f.Register("BROKEN", &stubVerifier{err: fmt.Errorf("provider exploded")})

	ctx := context.Background()
	assert.NoError(t, f.Verify(ctx, "GOOGLE", "tok-123"))

	// Provider failures and unknown providers are indistinguishable.
	assert.True(t, errors.Is(f.Verify(ctx, "BROKEN", "tok-123"), errors.ErrInvalidAssertion))
	assert.True(t, errors.Is(f.Verify(ctx, "MYSPACE", "tok-123"), errors.ErrInvalidAssertion))
}

func googleTestServer(t *testing.T, status int, body map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.NotEmpty(t, r.URL.Query().Get("id_token"))
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestGoogleVerifier_Verify(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     map[string]string
		clientID string
		wantErr  bool
	}{
		{"valid", http.StatusOK, map[string]string{"sub": "p1", "aud": "client-1"}, "client-1", false},
		{"valid without configured aud", http.StatusOK, map[string]string{"sub": "p1", "aud": "whatever"}, "", false},
		{"rejected token", http.StatusBadRequest, map[string]string{"error": "invalid_token"}, "", true},
		{"missing sub", http.StatusOK, map[string]string{"aud": "client-1"}, "client-1", true},
		{"aud mismatch", http.StatusOK, map[string]string{"sub": "p1", "aud": "other"}, "client-1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := googleTestServer(t, tt.status, tt.body)
			v := NewGoogleVerifier(tt.clientID, WithGoogleEndpoint(ts.URL))

			err := v.Verify(context.Background(), "assertion-token")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
