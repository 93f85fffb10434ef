package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gallery/internal/apperror"
	"gallery/internal/middleware"
)

type uploadURLResponse struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h HandlerSet) CreateUploadURL(c *gin.Context) {
	claims, ok := middleware.AccessClaimsFrom(c)
	if !ok {
		h.respondError(c, apperror.Unauthorized("invalid access token"))
		return
	}

	ticket, err := h.imageService.UploadURL(c.Request.Context(), claims.AccountID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, uploadURLResponse{
		UploadURL: ticket.URL,
		ObjectKey: ticket.ObjectKey,
		ExpiresAt: ticket.ExpiresAt.UTC(),
	})
}
