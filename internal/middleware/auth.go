package middleware

import (
	"github.com/gin-gonic/gin"

	"banknote-review-service/internal/apperr"
)

// RequireAuth aborts anonymous requests with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !SessionFrom(c).IsLoggedIn() {
			_ = c.Error(apperr.Unauthorized("Unauthorized"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole aborts with 401 when anonymous and 403 when the role differs.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := SessionFrom(c)
		if !session.IsLoggedIn() {
			_ = c.Error(apperr.Unauthorized("No session"))
			c.Abort()
			return
		}
		if session.User.Role != role {
			_ = c.Error(apperr.Forbidden("Access not allowed"))
			c.Abort()
			return
		}
		c.Next()
	}
}
