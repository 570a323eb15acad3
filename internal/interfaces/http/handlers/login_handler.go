package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tilvane/accountd/internal/application/service"
	"github.com/tilvane/accountd/internal/interfaces/http/middleware"
	"github.com/tilvane/accountd/internal/token"
	"github.com/tilvane/accountd/pkg/errors"
)

// LoginHandler exposes the login lifecycle endpoints.
type LoginHandler struct {
	logins *service.LoginService
}

func NewLoginHandler(logins *service.LoginService) *LoginHandler {
	return &LoginHandler{logins: logins}
}

// Create handles POST /v1/logins.
func (h *LoginHandler) Create(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, errors.ErrInvalidRequest.WithCause(err))
		return
	}

	result, err := h.logins.Login(c.Request.Context(), &req, token.FromHTTP(c.Request))
	if err != nil {
		SendError(c, err)
		return
	}

	c.Header("Set-Cookie", result.Cookie)
	SendSuccess(c, http.StatusOK, result)
}

// Refresh handles POST /v1/logins/refresh. Failures are flattened to 403
// so the endpoint cannot be probed for which step failed.
func (h *LoginHandler) Refresh(c *gin.Context) {
	result, err := h.logins.Refresh(c.Request.Context(), token.FromHTTP(c.Request))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "refresh_mismatch",
			"message": "unable to validate refresh grant",
		})
		return
	}

	c.Header("Set-Cookie", result.Cookie)
	SendSuccess(c, http.StatusOK, result)
}

// List handles GET /v1/logins.
func (h *LoginHandler) List(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		SendError(c, errors.ErrInvalidRequest.WithMessagef("token missing account id"))
		return
	}

	logins, err := h.logins.Logins(c.Request.Context(), accountID)
	if err != nil {
		SendError(c, err)
		return
	}
	SendSuccess(c, http.StatusOK, logins)
}

// Delete handles DELETE /v1/logins?provider=.
func (h *LoginHandler) Delete(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		SendError(c, errors.ErrInvalidRequest.WithMessagef("token missing account id"))
		return
	}
	provider := c.Query("provider")
	if provider == "" {
		SendError(c, errors.ErrInvalidRequest.WithMessagef("provider query parameter is required"))
		return
	}

	result, err := h.logins.DeleteLogin(c.Request.Context(), accountID, provider, token.FromHTTP(c.Request))
	if err != nil {
		SendError(c, err)
		return
	}

	c.Header("Set-Cookie", result.Cookie)
	SendSuccess(c, http.StatusOK, result)
}

// Certs handles GET /v1/logins/certs.
func (h *LoginHandler) Certs(c *gin.Context) {
	set, err := h.logins.Certs(c.Request.Context())
	if err != nil {
		SendError(c, err)
		return
	}
	SendSuccess(c, http.StatusOK, set)
}
