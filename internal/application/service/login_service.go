// Package service contains the application services gluing federation,
// records, refresh grants and token issuance together.
package service

import (
	"context"
	"strings"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/tilvane/accountd/internal/domain/models"
	"github.com/tilvane/accountd/internal/federation"
	"github.com/tilvane/accountd/internal/infrastructure/audit"
	"github.com/tilvane/accountd/internal/infrastructure/crypto"
	"github.com/tilvane/accountd/internal/infrastructure/monitoring"
	"github.com/tilvane/accountd/internal/infrastructure/records"
	"github.com/tilvane/accountd/internal/token"
	"github.com/tilvane/accountd/pkg/claims"
	"github.com/tilvane/accountd/pkg/errors"
	"github.com/tilvane/accountd/pkg/logger"
)

// LoginRequest is the create-login body.
type LoginRequest struct {
	// ID is the provider's user id.
	ID        string `json:"id" binding:"required"`
	IDToken   string `json:"idToken" binding:"required"`
	AuthToken string `json:"authToken" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Provider  string `json:"provider" binding:"required"`
	PhotoURL  string `json:"photoUrl"`
}

// TokenResult is a minted token with the payload that went into it and
// the refresh cookie to set.
type TokenResult struct {
	Payload map[string]interface{} `json:"payload"`
	Token   string                 `json:"token"`
	Cookie  string                 `json:"-"`
}

// LoginService implements the login lifecycle: create, refresh, list,
// delete, and the public-key document.
type LoginService struct {
	federator *federation.Federator
	records   records.Store
	refresh   *token.RefreshStore
	issuer    *token.Issuer
	keys      *crypto.KeyManager
	metrics   *monitoring.Metrics
	audit     audit.Publisher
	logger    logger.Logger
}

func NewLoginService(
	federator *federation.Federator,
	store records.Store,
	refresh *token.RefreshStore,
	issuer *token.Issuer,
	keys *crypto.KeyManager,
	metrics *monitoring.Metrics,
	auditor audit.Publisher,
	log logger.Logger,
) *LoginService {
	return &LoginService{
		federator: federator,
		records:   store,
		refresh:   refresh,
		issuer:    issuer,
		keys:      keys,
		metrics:   metrics,
		audit:     auditor,
		logger:    log.WithComponent("LoginService"),
	}
}

// Login verifies the provider assertion, upserts the login record, and
// mints a refresh grant plus an access token.
func (s *LoginService) Login(ctx context.Context, req *LoginRequest, ev *token.Event) (*TokenResult, error) {
	s.logger.Debug(ctx, "login requested",
		logger.String("provider", req.Provider),
		logger.String("request", claims.RedactedJSON(req)))

	if err := s.federator.Verify(ctx, req.Provider, req.IDToken); err != nil {
		s.metrics.RecordLogin(req.Provider, "denied")
		s.publishAudit(ctx, audit.Event{
			Type: audit.EventLogin, Provider: req.Provider, Success: false, Reason: "invalid assertion",
		})
		return nil, err
	}

	origin := ev.DeriveOrigin()
	login := &models.LoginRecord{
		ID:        req.Email,
		SortKey:   models.LoginSK(req.Provider, req.ID),
		Email:     req.Email,
		Name:      req.Name,
		Provider:  req.Provider,
		PhotoURL:  req.PhotoURL,
		IDToken:   req.IDToken,
		AuthToken: req.AuthToken,
		BaseURL:   origin.Scheme + "://" + origin.Host,
	}
	rec, err := records.NewRecord(login.ID, login)
	if err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}
	if err := s.records.Create(ctx, rec, true); err != nil {
		return nil, err
	}

	result, err := s.mint(ctx, login, origin, "")
	if err != nil {
		s.metrics.RecordLogin(req.Provider, "error")
		return nil, err
	}

	s.metrics.RecordLogin(req.Provider, "success")
	s.publishAudit(ctx, audit.Event{
		Type: audit.EventLogin, AccountID: login.ID, Provider: req.Provider,
		LoginSK: login.SortKey, Success: true,
	})
	s.logger.Info(ctx, "login created",
		logger.String("account_id", login.ID), logger.String("provider", req.Provider))
	return result, nil
}

// Refresh validates the presented refresh cookie and re-mints the grant
// and access token for the login it is bound to.
func (s *LoginService) Refresh(ctx context.Context, ev *token.Event) (*TokenResult, error) {
	record, err := s.refresh.FetchAndValidate(ctx, ev)
	if err != nil {
		s.metrics.RecordRefreshRotation("denied")
		s.publishAudit(ctx, audit.Event{Type: audit.EventRefresh, Success: false, Reason: "validation failed"})
		return nil, err
	}

	login, err := s.loadLogin(ctx, record.ID, record.Name)
	if err != nil {
		s.metrics.RecordRefreshRotation("denied")
		return nil, err
	}

	// Reissue against the login path, not the refresh path, so issuer and
	// refreshUrl claims stay consistent with freshly minted tokens.
	origin := ev.DeriveOrigin()
	origin.Path = trimLastSegment(origin.Path)

	result, err := s.mint(ctx, login, origin, record.Token)
	if err != nil {
		s.metrics.RecordRefreshRotation("error")
		return nil, err
	}

	s.metrics.RecordRefreshRotation("success")
	s.publishAudit(ctx, audit.Event{
		Type: audit.EventRefresh, AccountID: login.ID, LoginSK: login.SortKey, Success: true,
	})
	return result, nil
}

// Logins lists the caller's login records, cleansed and keyed by provider.
func (s *LoginService) Logins(ctx context.Context, accountID string) (map[string]map[string]interface{}, error) {
	recs, err := s.records.QueryPrefix(ctx, accountID, "login_")
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]interface{}, len(recs))
	for _, rec := range recs {
		var login models.LoginRecord
		if err := rec.Decode(&login); err != nil {
			return nil, errors.ErrInternal.WithCause(err)
		}
		payload, err := login.Payload()
		if err != nil {
			return nil, errors.ErrInternal.WithCause(err)
		}
		out[login.Provider] = claims.Cleanse(payload)
	}
	return out, nil
}

// DeleteLogin removes one provider's login and re-targets the caller's
// refresh grant and token at a remaining login. Removing the only login
// is rejected.
func (s *LoginService) DeleteLogin(ctx context.Context, accountID, provider string, ev *token.Event) (*TokenResult, error) {
	recs, err := s.records.QueryPrefix(ctx, accountID, "login_")
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.ErrRecordNotFound.WithMessagef("no logins found")
	}

	var toDelete, switchTo *models.LoginRecord
	for _, rec := range recs {
		var login models.LoginRecord
		if err := rec.Decode(&login); err != nil {
			return nil, errors.ErrInternal.WithCause(err)
		}
		l := login
		if l.Provider == provider {
			toDelete = &l
		} else {
			switchTo = &l
		}
	}
	if toDelete == nil {
		return nil, errors.ErrInvalidRequest.WithMessagef("no login for provider %s", provider)
	}
	if switchTo == nil {
		return nil, errors.ErrLastLoginRemoval
	}

	if err := s.records.Delete(ctx, accountID, toDelete.SortKey); err != nil {
		return nil, err
	}

	record, err := s.refresh.FetchAndValidate(ctx, ev)
	if err != nil {
		return nil, err
	}

	result, err := s.mint(ctx, switchTo, ev.DeriveOrigin(), record.Token)
	if err != nil {
		return nil, err
	}

	s.publishAudit(ctx, audit.Event{
		Type: audit.EventLoginDeleted, AccountID: accountID, Provider: provider,
		LoginSK: toDelete.SortKey, Success: true,
	})
	s.logger.Info(ctx, "login deleted",
		logger.String("account_id", accountID), logger.String("provider", provider))
	return result, nil
}

// Certs returns the JWKS document for the service's public key.
func (s *LoginService) Certs(ctx context.Context) (*jose.JSONWebKeySet, error) {
	return s.keys.KeySet(ctx)
}

// mint rotates the refresh grant and issues an access token for a login.
func (s *LoginService) mint(ctx context.Context, login *models.LoginRecord, origin token.Origin, existingToken string) (*TokenResult, error) {
	payload, err := login.Payload()
	if err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}
	cleansed := claims.Cleanse(payload)

	grant, err := s.refresh.CreateOrRotate(ctx, login.ID, login.SortKey, origin, existingToken)
	if err != nil {
		return nil, err
	}

	issued, err := s.issuer.Issue(ctx, login.ID, cleansed, origin)
	if err != nil {
		s.metrics.RecordTokenIssuance("error")
		return nil, err
	}
	s.metrics.RecordTokenIssuance("success")

	cleansed["refreshUrl"] = issued.Claims["refreshUrl"]
	return &TokenResult{Payload: cleansed, Token: issued.Token, Cookie: grant.Cookie}, nil
}

func (s *LoginService) loadLogin(ctx context.Context, accountID, loginSK string) (*models.LoginRecord, error) {
	rec, err := s.records.Get(ctx, accountID, loginSK)
	if err != nil {
		return nil, err
	}
	var login models.LoginRecord
	if err := rec.Decode(&login); err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}
	return &login, nil
}

func (s *LoginService) publishAudit(ctx context.Context, event audit.Event) {
	if err := s.audit.Publish(ctx, event); err != nil {
		s.logger.Warn(ctx, "audit publish failed", logger.Err(err))
	}
}

// trimLastSegment drops the final path segment, turning
// /v1/logins/refresh into /v1/logins.
func trimLastSegment(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return path
	}
	return path[:idx]
}
