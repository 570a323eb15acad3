package service

import (
	"context"
	"time"

	"github.com/tilvane/accountd/internal/domain/models"
	"github.com/tilvane/accountd/internal/infrastructure/records"
	"github.com/tilvane/accountd/pkg/errors"
	"github.com/tilvane/accountd/pkg/logger"
)

// CreateAccountRequest is the create-account body.
type CreateAccountRequest struct {
	Email   string `json:"email" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Company string `json:"company"`
}

// UpdateAccountRequest carries the mutable account fields. Empty strings
// are allowed and overwrite.
type UpdateAccountRequest struct {
	Name    *string `json:"name"`
	Company *string `json:"company"`
}

// AccountService manages primary account records.
type AccountService struct {
	records records.Store
	clock   func() time.Time
	logger  logger.Logger
}

func NewAccountService(store records.Store, log logger.Logger) *AccountService {
	return &AccountService{
		records: store,
		clock:   time.Now,
		logger:  log.WithComponent("AccountService"),
	}
}

// Create stores a new primary record; an existing account conflicts.
func (s *AccountService) Create(ctx context.Context, accountID string, req *CreateAccountRequest) (*models.AccountRecord, error) {
	now := s.clock().UTC()
	account := &models.AccountRecord{
		ID:        accountID,
		Email:     req.Email,
		Name:      req.Name,
		Company:   req.Company,
		CreatedAt: now,
		UpdatedAt: now,
	}
	rec, err := records.NewRecord(accountID, account)
	if err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}
	if err := s.records.Create(ctx, rec, false); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "account created", logger.String("account_id", accountID))
	return account, nil
}

// Get loads the primary record. A missing account is reported as
// ErrRecordNotFound; the HTTP layer turns that into 204 to match the
// probe-style usage of this endpoint.
func (s *AccountService) Get(ctx context.Context, accountID string) (*models.AccountRecord, error) {
	rec, err := s.records.Get(ctx, accountID, (&models.AccountRecord{}).SK())
	if err != nil {
		return nil, err
	}
	var account models.AccountRecord
	if err := rec.Decode(&account); err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}
	return &account, nil
}

// Update patches the existing primary record.
func (s *AccountService) Update(ctx context.Context, accountID string, req *UpdateAccountRequest) (*models.AccountRecord, error) {
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Company != nil {
		account.Company = *req.Company
	}
	account.UpdatedAt = s.clock().UTC()

	rec, err := records.NewRecord(accountID, account)
	if err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}
	if err := s.records.Create(ctx, rec, true); err != nil {
		return nil, err
	}
	return account, nil
}
