package service

import (
	"net/http"
	"strings"
	"time"

	"gallery/internal/config"
	"gallery/internal/models"
)

const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

// Cookie describes how a token is delivered to the client. MaxAge is in
// seconds; zero or less instructs the client to drop the cookie.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
	MaxAge   int
}

func (c Cookie) ToHTTP() *http.Cookie {
	cookie := &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: c.SameSite,
		MaxAge:   c.MaxAge,
	}
	if c.MaxAge <= 0 {
		// net/http reads MaxAge 0 as "unset"
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0).UTC()
	}
	return cookie
}

type LogoutCookies struct {
	Access  Cookie
	Refresh Cookie
}

type SignInResult struct {
	Account       models.Account
	AccessToken   string
	RefreshToken  string
	AccessCookie  Cookie
	RefreshCookie Cookie
}

type cookiePolicy struct {
	domain        string
	secure        bool
	sameSite      http.SameSite
	accessMaxAge  int
	refreshMaxAge int
}

func newCookiePolicy(cfg config.SecurityConfig) cookiePolicy {
	return cookiePolicy{
		domain:        cfg.CookieDomain,
		secure:        cfg.CookieSecure,
		sameSite:      parseSameSite(cfg.CookieSameSite),
		accessMaxAge:  cfg.AccessCookieMaxAge,
		refreshMaxAge: cfg.RefreshCookieMaxAge,
	}
}

func (p cookiePolicy) cookie(name, value string, maxAge int) Cookie {
	return Cookie{
		Name:     name,
		Value:    value,
		Domain:   p.domain,
		Path:     "/",
		HTTPOnly: true,
		Secure:   p.secure,
		SameSite: p.sameSite,
		MaxAge:   maxAge,
	}
}

func (p cookiePolicy) access(token string) Cookie {
	return p.cookie(AccessCookieName, token, p.accessMaxAge)
}

func (p cookiePolicy) refresh(token string) Cookie {
	return p.cookie(RefreshCookieName, token, p.refreshMaxAge)
}

func (p cookiePolicy) logout() LogoutCookies {
	return LogoutCookies{
		Access:  p.cookie(AccessCookieName, "", 0),
		Refresh: p.cookie(RefreshCookieName, "", 0),
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
