package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/pathshala-plus/pathshala-api/internal/models"
	"github.com/pathshala-plus/pathshala-api/internal/service"
	appErrors "github.com/pathshala-plus/pathshala-api/pkg/errors"
	"github.com/pathshala-plus/pathshala-api/pkg/response"
)

// ContextPrincipalKey is the gin context key storing the resolved principal.
const ContextPrincipalKey = "currentPrincipal"

// Auth protects routes of one principal variant. The live record is loaded
// on every request; a rejected request aborts with no partial side effects.
func Auth(authService *service.AuthService, metrics *service.MetricsService, variant models.Variant) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := authService.Resolve(c.Request.Context(), c.GetHeader("Authorization"), variant)
		if err != nil {
			metrics.RecordAuthRejection(appErrors.FromError(err).Code)
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextPrincipalKey, principal)
		c.Next()
	}
}

// RequireAdmin gates teacher-account management behind the admin role. Must
// run after Auth with the teacher variant.
func RequireAdmin(authService *service.AuthService, metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := PrincipalFromContext(c)
		if principal == nil {
			metrics.RecordAuthRejection(appErrors.ErrNoToken.Code)
			response.Error(c, appErrors.ErrNoToken)
			c.Abort()
			return
		}

		if err := authService.Authorize(principal, models.RoleAdmin); err != nil {
			metrics.RecordAuthRejection(appErrors.FromError(err).Code)
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}

// PrincipalFromContext returns the resolved principal, or nil when the route
// was not authenticated.
func PrincipalFromContext(c *gin.Context) *models.Principal {
	value, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return nil
	}
	principal, ok := value.(*models.Principal)
	if !ok {
		return nil
	}
	return principal
}
