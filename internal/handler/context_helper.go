package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/scsvmv/vms-api/internal/middleware"
	"github.com/scsvmv/vms-api/internal/models"
	appErrors "github.com/scsvmv/vms-api/pkg/errors"
	"github.com/scsvmv/vms-api/pkg/response"
)

// requireClaims pulls the authenticated staff claims out of the Gin
// context. When the JWT middleware did not run (or stored something
// unexpected) it writes the 401 itself and reports ok=false; handlers
// just return.
func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(middleware.ContextUserKey)
	if exists {
		if claims, ok := value.(*models.JWTClaims); ok {
			return claims, true
		}
	}
	response.Error(c, appErrors.ErrUnauthorized)
	return nil, false
}
