package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gallery/internal/apperror"
	"gallery/internal/middleware"
	"gallery/internal/service"
	"gallery/internal/validation"
)

type signUpRequest struct {
	Username string `json:"username" binding:"required,min=4,max=20"`
	Password string `json:"password" binding:"required,password_policy"`
}

// Sign-in only checks presence; a policy violation is just a wrong password.
type signInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type accountResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

func (h HandlerSet) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperror.Validation(validation.Message(err)))
		return
	}

	account, err := h.authService.SignUp(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, accountResponse{
		ID:       account.ID,
		Username: account.Username,
		Role:     string(account.Role),
	})
}

func (h HandlerSet) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperror.Validation(validation.Message(err)))
		return
	}

	result, err := h.authService.SignIn(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	setCookies(c, result.AccessCookie, result.RefreshCookie)
	c.Header("Authorization", "Bearer "+result.AccessToken+","+result.RefreshToken)
	c.JSON(http.StatusOK, tokensResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

func (h HandlerSet) SignOut(c *gin.Context) {
	account, ok := middleware.AccountFrom(c)
	if !ok {
		h.respondError(c, apperror.Unauthorized("invalid refresh token"))
		return
	}

	cookies, err := h.authService.SignOut(c.Request.Context(), account.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	setCookies(c, cookies.Access, cookies.Refresh)
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

func (h HandlerSet) Refresh(c *gin.Context) {
	account, ok := middleware.AccountFrom(c)
	if !ok {
		h.respondError(c, apperror.Unauthorized("invalid refresh token"))
		return
	}

	cookie, err := h.authService.Refresh(c.Request.Context(), account.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	setCookies(c, cookie)
	c.JSON(http.StatusOK, tokensResponse{AccessToken: cookie.Value})
}

func setCookies(c *gin.Context, cookies ...service.Cookie) {
	for _, cookie := range cookies {
		http.SetCookie(c.Writer, cookie.ToHTTP())
	}
}
