package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"gallery/internal/cache"
	"gallery/internal/config"
	"gallery/internal/middleware"
	"gallery/internal/models"
	"gallery/internal/repository"
	"gallery/internal/security"
	"gallery/internal/service"
	"gallery/internal/storage"
	"gallery/internal/validation"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HandlerSet struct {
	log          zerolog.Logger
	cfg          *config.AppConfig
	authService  *service.AuthService
	imageService *service.ImageService
	signer       *security.TokenSigner
	db           Pinger
	cache        *redis.Client
}

// NewHandlerSet wires the services. db, cache and store may be nil: the
// in-memory driver runs without postgres, sign-in throttling is off
// without redis, and upload URLs fail without object storage.
func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	accounts repository.AccountRepository,
	db Pinger,
	cacheClient *redis.Client,
	store *storage.ObjectStore,
) HandlerSet {
	if err := validation.Register(); err != nil {
		log.Error().Err(err).Msg("register validators failed")
	}

	a := cfg.Security.Argon2
	hasher := security.NewArgon2Hasher(security.Argon2Params{
		Time:    a.Time,
		Memory:  a.Memory,
		Threads: a.Threads,
		KeyLen:  a.KeyLen,
		SaltLen: a.SaltLen,
	})
	signer := security.NewTokenSigner()
	limiter := cache.NewAttemptLimiter(cacheClient, cfg.Security.SignInMaxAttempts, cfg.Security.SignInWindow)

	var presigner service.UploadPresigner
	if store != nil {
		presigner = store
	}

	return HandlerSet{
		log:          log,
		cfg:          cfg,
		authService:  service.NewAuthService(accounts, hasher, signer, limiter, cfg.Security, log),
		imageService: service.NewImageService(presigner, cfg.Storage.UploadURLTTL, log),
		signer:       signer,
		db:           db,
		cache:        cacheClient,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	accessGuard := middleware.AccessGuard(h.signer, h.cfg.Security.AccessSecret, h.log)
	refreshGuard := middleware.RefreshGuard(h.signer, h.cfg.Security.RefreshSecret, h.authService.Sessions(), h.log)

	auth := router.Group("/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/signin", h.SignIn)
		auth.POST("/signout", refreshGuard, h.SignOut)
		auth.GET("/refresh", refreshGuard, h.Refresh)
	}

	users := router.Group("/users")
	users.Use(accessGuard)
	users.GET("/me", h.Me)

	images := router.Group("/images")
	images.Use(
		accessGuard,
		middleware.RequireRoles(models.RoleAdmin, models.RoleManager),
	)
	images.POST("/upload-url", h.CreateUploadURL)
}
