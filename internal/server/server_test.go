package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallery/internal/config"
	"gallery/internal/handlers"
	"gallery/internal/repository"
)

func newTestServer(t *testing.T) *HTTPServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.AppConfig{
		Environment: "test",
		HTTP:        config.HTTPConfig{Host: "127.0.0.1", Port: 0},
		Repository:  config.RepositoryConfig{Driver: config.DriverMemory},
		Security: config.SecurityConfig{
			AccessSecret:        "a",
			RefreshSecret:       "r",
			AccessTTL:           time.Minute,
			RefreshTTL:          time.Hour,
			AccessCookieMaxAge:  60,
			RefreshCookieMaxAge: 3600,
			CookieDomain:        "localhost",
			Argon2:              config.Argon2Config{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16},
		},
		AllowCORSOrigins: []string{"https://gallery.test"},
	}
	set := handlers.NewHandlerSet(zerolog.Nop(), cfg, repository.NewMemoryAccountRepository(), nil, nil, nil)
	return NewHTTPServer(cfg, zerolog.Nop(), set)
}

func TestServerRoutesUnderAPI(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"route not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/signin", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServerSignUpThroughMiddlewareChain(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(`{"username":"alice","password":"Testtest!1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://gallery.test")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "https://gallery.test", rec.Header().Get("Access-Control-Allow-Origin"))
}
