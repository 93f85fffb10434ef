package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gallery/internal/apperror"
	"gallery/internal/middleware"
)

func (h HandlerSet) Me(c *gin.Context) {
	claims, ok := middleware.AccessClaimsFrom(c)
	if !ok {
		h.respondError(c, apperror.Unauthorized("invalid access token"))
		return
	}

	account, err := h.authService.Account(c.Request.Context(), claims.AccountID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, accountResponse{
		ID:       account.ID,
		Username: account.Username,
		Role:     string(account.Role),
	})
}
