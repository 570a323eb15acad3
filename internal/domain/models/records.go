// Package models holds the persisted record types of the account service.
// Every record lives in the record store under a (partition key, sort key)
// pair; the helpers here build the sort keys so their shape is defined in
// exactly one place.
package models

import (
	"encoding/json"
	"time"

	"github.com/tilvane/accountd/pkg/constants"
)

// LoginRecord links an external identity to an account. Records are stored
// under the account id (the login email) with a sort key encoding the
// provider and the provider's user id. The row keys are serialized with the
// payload so tokens minted from a cleansed record carry id and sk claims,
// which the refresh path later reads back.
type LoginRecord struct {
	// ID is the partition key, the login email.
	ID string `json:"id"`
	// SortKey is `login_<provider>_<providerUserId>`.
	SortKey string `json:"sk"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	// Provider names the identity provider, e.g. "GOOGLE".
	Provider string `json:"provider"`
	PhotoURL string `json:"photoUrl,omitempty"`
	// IDToken and AuthToken are the provider's opaque credentials as
	// presented at login. Treated as sensitive; never logged.
	IDToken   string `json:"idToken,omitempty"`
	AuthToken string `json:"authToken,omitempty"`
	// BaseURL is the external origin the login was created through.
	BaseURL string `json:"baseUrl,omitempty"`
}

// LoginSK builds the sort key for a login record.
func LoginSK(provider, providerUserID string) string {
	return constants.LoginRecordPrefix + provider + "_" + providerUserID
}

// SK returns the record's own sort key.
func (r *LoginRecord) SK() string {
	return r.SortKey
}

func (r *LoginRecord) MarshalRecord() ([]byte, error) {
	return json.Marshal(r)
}

// Payload returns the record as a claim map, for embedding in tokens after
// cleansing.
func (r *LoginRecord) Payload() (map[string]interface{}, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// RefreshRecord stores the server side of a refresh grant under the
// account id. Token is the opaque value the cookie must echo back; Header
// is the exact Set-Cookie value last issued for it.
type RefreshRecord struct {
	// ID is the partition key, the account id.
	ID    string `json:"id"`
	Token string `json:"token"`
	// Name is the sort key of the login the grant is bound to.
	Name string `json:"name"`
	// Expires is the unix-seconds expiry of the grant.
	Expires int64  `json:"expires"`
	Header  string `json:"header"`
}

// RefreshSK builds the sort key for a refresh record bound to a login.
func RefreshSK(loginSK string) string {
	return constants.RefreshRecordPrefix + loginSK
}

func (r *RefreshRecord) SK() string {
	return RefreshSK(r.Name)
}

func (r *RefreshRecord) Expired(now time.Time) bool {
	return r.Expires != 0 && now.Unix() > r.Expires
}

func (r *RefreshRecord) MarshalRecord() ([]byte, error) {
	return json.Marshal(r)
}

// AccountRecord is the primary record of an account, stored under the
// account id with the fixed "primary" sort key.
type AccountRecord struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Company   string    `json:"company,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *AccountRecord) SK() string {
	return constants.AccountPrimarySK
}

func (r *AccountRecord) MarshalRecord() ([]byte, error) {
	return json.Marshal(r)
}
