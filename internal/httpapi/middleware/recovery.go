package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kpiotrowski/flashforge/internal/common"
)

// Recovery turns panics into a clean 500 instead of a dropped connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic recovered: %v method=%s path=%s", r, c.Request.Method, c.Request.URL.Path)
				common.Fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
