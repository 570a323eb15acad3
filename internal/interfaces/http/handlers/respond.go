// Package handlers contains the gin HTTP handlers.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tilvane/accountd/pkg/errors"
)

// SendError writes the error taxonomy response for err.
func SendError(c *gin.Context, err error) {
	c.JSON(errors.HTTPStatus(err), errors.ToResponse(err))
}

// SendSuccess writes a JSON success body.
func SendSuccess(c *gin.Context, status int, body interface{}) {
	c.JSON(status, body)
}
