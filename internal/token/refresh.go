package token

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tilvane/accountd/internal/domain/models"
	"github.com/tilvane/accountd/internal/infrastructure/records"
	"github.com/tilvane/accountd/pkg/errors"
	"github.com/tilvane/accountd/pkg/logger"
)

// Grant is the client-facing half of a refresh record: the opaque token
// and the Set-Cookie header value binding it to the browser.
type Grant struct {
	Token  string
	Cookie string
}

// RefreshStore persists rotating refresh grants and validates them against
// the cookie a client presents.
type RefreshStore struct {
	records      records.Store
	cookiePrefix string
	maxAge       time.Duration
	clock        func() time.Time
	logger       logger.Logger
}

// RefreshOption tweaks store construction.
type RefreshOption func(*RefreshStore)

func WithRefreshClock(clock func() time.Time) RefreshOption {
	return func(s *RefreshStore) { s.clock = clock }
}

func NewRefreshStore(store records.Store, cookiePrefix string, maxAge time.Duration, log logger.Logger, opts ...RefreshOption) *RefreshStore {
	s := &RefreshStore{
		records:      store,
		cookiePrefix: cookiePrefix,
		maxAge:       maxAge,
		clock:        time.Now,
		logger:       log.WithComponent("RefreshStore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrRotate writes the single live refresh record for (accountID,
// loginSK), overwriting any prior one. A fresh login passes existingToken
// empty and gets a new opaque token; a refresh passes the token that just
// validated, so concurrent refreshes racing on the same stored value keep
// converging on it.
func (s *RefreshStore) CreateOrRotate(ctx context.Context, accountID, loginSK string, origin Origin, existingToken string) (*Grant, error) {
	token := existingToken
	if token == "" {
		token = uuid.NewString()
	}

	cookie := (&http.Cookie{
		Name:     s.cookiePrefix + loginSK,
		Value:    token,
		Domain:   origin.Host,
		MaxAge:   int(s.maxAge.Seconds()),
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}).String()

	record := &models.RefreshRecord{
		ID:      accountID,
		Token:   token,
		Name:    loginSK,
		Expires: s.clock().Add(s.maxAge).Unix(),
		Header:  cookie,
	}
	rec, err := records.NewRecord(accountID, record)
	if err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}
	if err := s.records.Create(ctx, rec, true); err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "refresh grant stored",
		logger.String("account_id", accountID), logger.String("login_sk", loginSK))
	return &Grant{Token: token, Cookie: cookie}, nil
}

// FetchAndValidate loads the refresh record named by the (unverified)
// access token's id/sk claims and checks the presented cookie against the
// stored token. The access token may be expired; only the cookie value
// proves possession here.
func (s *RefreshStore) FetchAndValidate(ctx context.Context, ev *Event) (*models.RefreshRecord, error) {
	raw, err := extractToken(ev)
	if err != nil {
		return nil, errors.ErrRefreshMismatch.WithCause(err)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, errors.ErrRefreshMismatch.WithMessagef("undecodable access token")
	}
	accountID, _ := claims["id"].(string)
	loginSK, _ := claims["sk"].(string)
	if accountID == "" || loginSK == "" {
		return nil, errors.ErrRefreshMismatch.WithMessagef("token missing refresh claims")
	}

	rec, err := s.records.Get(ctx, accountID, models.RefreshSK(loginSK))
	if err != nil {
		if errors.Is(err, errors.ErrRecordNotFound) {
			return nil, errors.ErrRecordNotFound
		}
		return nil, err
	}
	var record models.RefreshRecord
	if err := rec.Decode(&record); err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}

	presented := cookieValue(ev.Header("Cookie"), s.cookiePrefix+loginSK)
	if presented == "" {
		return nil, errors.ErrRefreshMismatch
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(record.Token)) != 1 {
		s.logger.Warn(ctx, "refresh cookie does not match stored token",
			logger.String("account_id", accountID), logger.String("login_sk", loginSK))
		return nil, errors.ErrRefreshMismatch
	}
	if record.Expired(s.clock()) {
		return nil, errors.ErrRefreshMismatch.WithMessagef("refresh grant expired")
	}
	return &record, nil
}

// cookieValue extracts one cookie from a raw Cookie header.
func cookieValue(header, name string) string {
	for _, part := range strings.Split(header, ";") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && kv[0] == name {
			return kv[1]
		}
	}
	return ""
}
