package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gallery/internal/apperror"
)

func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("path", c.Request.URL.Path).
					Str("request_id", c.Writer.Header().Get(requestIDHeader)).
					Msg("panic recovered")
				abortWithError(c, apperror.Internal(nil))
			}
		}()
		c.Next()
	}
}
