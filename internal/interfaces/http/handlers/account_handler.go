package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tilvane/accountd/internal/application/service"
	"github.com/tilvane/accountd/internal/interfaces/http/middleware"
	"github.com/tilvane/accountd/pkg/errors"
)

// AccountHandler exposes the primary account record endpoints.
type AccountHandler struct {
	accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Create handles POST /v1/accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		SendError(c, errors.ErrInvalidRequest.WithMessagef("token missing account id"))
		return
	}

	var req service.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, errors.ErrInvalidRequest.WithCause(err))
		return
	}

	account, err := h.accounts.Create(c.Request.Context(), accountID, &req)
	if err != nil {
		SendError(c, err)
		return
	}
	SendSuccess(c, http.StatusOK, account)
}

// Get handles GET /v1/accounts. A missing record yields 204, matching the
// probe-style use of this endpoint by clients checking for onboarding.
func (h *AccountHandler) Get(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		SendError(c, errors.ErrInvalidRequest.WithMessagef("token missing account id"))
		return
	}

	account, err := h.accounts.Get(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, errors.ErrRecordNotFound) {
			c.Status(http.StatusNoContent)
			return
		}
		SendError(c, err)
		return
	}
	SendSuccess(c, http.StatusOK, account)
}

// Update handles PATCH /v1/accounts.
func (h *AccountHandler) Update(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		SendError(c, errors.ErrInvalidRequest.WithMessagef("token missing account id"))
		return
	}

	var req service.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, errors.ErrInvalidRequest.WithCause(err))
		return
	}

	account, err := h.accounts.Update(c.Request.Context(), accountID, &req)
	if err != nil {
		SendError(c, err)
		return
	}
	SendSuccess(c, http.StatusOK, account)
}
