package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"banknote-review-service/internal/apperr"
	"banknote-review-service/internal/logger"
)

const genericErrorMsg = "something went wrong"

// ErrorHandler renders the last error a handler attached with c.Error.
// Application errors keep their status and message; anything else is logged
// and masked as a 500.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "ErrorHandler")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		if appErr, ok := apperr.As(err); ok {
			if appErr.Status >= http.StatusInternalServerError {
				log.Error("request failed", "path", c.Request.URL.Path, "error", err)
			}
			c.JSON(appErr.Status, gin.H{"msg": appErr.Msg})
			return
		}

		log.Error("unhandled error", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": genericErrorMsg})
	}
}
