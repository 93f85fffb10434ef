package handlers

import (
	"github.com/gin-gonic/gin"

	"gallery/internal/apperror"
)

func (h HandlerSet) respondError(c *gin.Context, err error) {
	appErr := apperror.From(err)
	if appErr.Kind == apperror.KindInternal {
		h.log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.Writer.Header().Get("X-Request-Id")).
			Msg("request failed")
	}

	c.AbortWithStatusJSON(appErr.HTTPStatus(), gin.H{
		"error":   appErr.Code(),
		"message": appErr.Message,
	})
}
