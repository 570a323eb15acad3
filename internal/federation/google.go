package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ProviderGoogle is the registry name of the Google verifier.
const ProviderGoogle = "GOOGLE"

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleVerifier validates Google ID tokens against the tokeninfo
// endpoint.
type GoogleVerifier struct {
	client   *http.Client
	endpoint string
	// clientID, when set, must match the token's aud claim.
	clientID string
}

// GoogleOption tweaks verifier construction.
type GoogleOption func(*GoogleVerifier)

func WithGoogleEndpoint(endpoint string) GoogleOption {
	return func(v *GoogleVerifier) { v.endpoint = endpoint }
}

func WithGoogleHTTPClient(client *http.Client) GoogleOption {
	return func(v *GoogleVerifier) { v.client = client }
}

func NewGoogleVerifier(clientID string, opts ...GoogleOption) *GoogleVerifier {
	v := &GoogleVerifier{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: googleTokenInfoURL,
		clientID: clientID,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify confirms the assertion designates a stable Google subject.
func (v *GoogleVerifier) Verify(ctx context.Context, assertion string) error {
	u := v.endpoint + "?id_token=" + url.QueryEscape(assertion)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("tokeninfo returned %d", resp.StatusCode)
	}

	var info struct {
		Sub string `json:"sub"`
		Aud string `json:"aud"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("decode tokeninfo response: %w", err)
	}
	if info.Sub == "" {
		return fmt.Errorf("tokeninfo response missing sub")
	}
	if v.clientID != "" && info.Aud != v.clientID {
		return fmt.Errorf("tokeninfo aud does not match configured client id")
	}
	return nil
}
