package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"gallery/internal/apperror"
	"gallery/internal/models"
	"gallery/internal/repository"
	"gallery/internal/security"
	"gallery/internal/service"
)

const (
	accessClaimsKey   = "access_claims"
	refreshClaimsKey  = "refresh_claims"
	currentAccountKey = "current_account"

	msgInvalidAccessToken  = "invalid access token"
	msgInvalidRefreshToken = "invalid refresh token"
)

// AccessGuard admits requests carrying a valid access token cookie and
// stores its claims as the request principal.
func AccessGuard(signer *security.TokenSigner, secret string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(service.AccessCookieName)
		if err != nil || token == "" {
			reject(c, log, "missing_cookie", msgInvalidAccessToken)
			return
		}

		claims, err := signer.VerifyAccess(token, secret)
		if err != nil {
			reject(c, log, rejectReason(err), msgInvalidAccessToken)
			return
		}

		c.Set(accessClaimsKey, claims)
		c.Next()
	}
}

// RefreshGuard admits requests whose refresh token cookie is valid and is
// the account's current session.
func RefreshGuard(signer *security.TokenSigner, secret string, sessions *repository.SessionStore, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(service.RefreshCookieName)
		if err != nil || token == "" {
			reject(c, log, "missing_cookie", msgInvalidRefreshToken)
			return
		}

		claims, err := signer.VerifyRefresh(token, secret)
		if err != nil {
			reject(c, log, rejectReason(err), msgInvalidRefreshToken)
			return
		}

		account, err := sessions.Validate(c.Request.Context(), claims.AccountID, token)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrAccountNotFound):
				reject(c, log, "account_not_found", msgInvalidRefreshToken)
			case errors.Is(err, repository.ErrNoSession):
				reject(c, log, "no_session", msgInvalidRefreshToken)
			case errors.Is(err, repository.ErrSessionMismatch):
				reject(c, log, "session_mismatch", msgInvalidRefreshToken)
			default:
				log.Error().Err(err).Int64("account_id", claims.AccountID).Msg("refresh session lookup failed")
				abortWithError(c, apperror.Internal(err))
			}
			return
		}

		c.Set(refreshClaimsKey, claims)
		c.Set(currentAccountKey, account)
		c.Next()
	}
}

func AccessClaimsFrom(c *gin.Context) (*security.AccessClaims, bool) {
	v, ok := c.Get(accessClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*security.AccessClaims)
	return claims, ok && claims != nil
}

func RefreshClaimsFrom(c *gin.Context) (*security.RefreshClaims, bool) {
	v, ok := c.Get(refreshClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*security.RefreshClaims)
	return claims, ok && claims != nil
}

// AccountFrom returns the account loaded by RefreshGuard.
func AccountFrom(c *gin.Context) (models.Account, bool) {
	v, ok := c.Get(currentAccountKey)
	if !ok {
		return models.Account{}, false
	}
	account, ok := v.(models.Account)
	return account, ok
}

func rejectReason(err error) string {
	if errors.Is(err, security.ErrTokenExpired) {
		return "expired"
	}
	return "invalid"
}

func reject(c *gin.Context, log zerolog.Logger, reason string, message string) {
	log.Debug().
		Str("reason", reason).
		Str("path", c.Request.URL.Path).
		Str("request_id", c.GetString(requestIDHeader)).
		Msg("request rejected")
	abortWithError(c, apperror.Unauthorized(message))
}

func abortWithError(c *gin.Context, err *apperror.Error) {
	c.AbortWithStatusJSON(err.HTTPStatus(), gin.H{
		"error":   err.Code(),
		"message": err.Message,
	})
}
