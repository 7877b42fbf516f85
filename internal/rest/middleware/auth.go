package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/types"
)

// AuthMiddleware trusts the identity headers stamped by the upstream auth
// gateway. Authentication itself happens before this service; requests
// without an identity are rejected here.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-Id")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Success: false,
				Error: ErrorDetail{
					Code:    ierr.ErrCodePermissionDenied,
					Message: "Missing authentication",
				},
			})
			return
		}

		ctx := types.SetUserID(c.Request.Context(), userID)
		if teamID := c.GetHeader("X-Team-Id"); teamID != "" {
			ctx = types.SetTeamID(ctx, teamID)
		}
		if role := c.GetHeader("X-User-Role"); role != "" {
			ctx = types.SetUserRole(ctx, types.UserRole(role))
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
