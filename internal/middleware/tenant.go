package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

// RequireSchool rejects tokens without a school_id claim. The school is exposed to the request
// logger under logger.ContextSchoolKey.
func RequireSchool() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if strings.TrimSpace(claims.SchoolID) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "token is not scoped to a school"))
			c.Abort()
			return
		}
		c.Set(logger.ContextSchoolKey, claims.SchoolID)
		c.Next()
	}
}
