package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"gallery/internal/apperror"
	"gallery/internal/cache"
	"gallery/internal/config"
	"gallery/internal/models"
	"gallery/internal/repository"
	"gallery/internal/security"
	"gallery/internal/validation"
)

const (
	msgInvalidCredentials  = "invalid credentials"
	msgInvalidRefreshToken = "invalid refresh token"
	msgUsernameTaken       = "username already taken"
	msgTooManyAttempts     = "too many sign-in attempts, try again later"
)

// AuthService owns the account session lifecycle: sign-up, sign-in,
// access token refresh and sign-out.
type AuthService struct {
	accounts repository.AccountRepository
	sessions *repository.SessionStore
	hasher   security.PasswordHasher
	signer   *security.TokenSigner
	limiter  *cache.AttemptLimiter
	cfg      config.SecurityConfig
	cookies  cookiePolicy
	log      zerolog.Logger
	decoy    string
}

func NewAuthService(
	accounts repository.AccountRepository,
	hasher security.PasswordHasher,
	signer *security.TokenSigner,
	limiter *cache.AttemptLimiter,
	cfg config.SecurityConfig,
	log zerolog.Logger,
) *AuthService {
	s := &AuthService{
		accounts: accounts,
		sessions: repository.NewSessionStore(accounts),
		hasher:   hasher,
		signer:   signer,
		limiter:  limiter,
		cfg:      cfg,
		cookies:  newCookiePolicy(cfg),
		log:      log,
	}
	s.decoy = s.decoyDigest()
	return s
}

func (s *AuthService) SignUp(ctx context.Context, username, password string) (models.Account, error) {
	if err := validation.CheckUsername(username); err != nil {
		return models.Account{}, apperror.Validation(err.Error())
	}
	if err := validation.CheckPassword(password); err != nil {
		return models.Account{}, apperror.Validation(err.Error())
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return models.Account{}, apperror.Internal(errors.Wrap(err, "hash password"))
	}

	account, err := s.accounts.Create(ctx, models.Account{
		Username:     username,
		PasswordHash: digest,
		Role:         models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return models.Account{}, apperror.Conflict(msgUsernameTaken)
		}
		return models.Account{}, apperror.Internal(errors.Wrap(err, "create account"))
	}

	s.log.Info().Int64("account_id", account.ID).Str("username", account.Username).Msg("account created")
	return account, nil
}

// SignIn checks credentials and opens a new session, replacing any session
// the account already had. Unknown usernames and wrong passwords fail the
// same way.
func (s *AuthService) SignIn(ctx context.Context, username, password string) (SignInResult, error) {
	blocked, err := s.limiter.Blocked(ctx, username)
	if err != nil {
		s.log.Warn().Err(err).Msg("sign-in limiter unavailable")
	}
	if blocked {
		return SignInResult{}, apperror.TooManyRequests(msgTooManyAttempts)
	}

	account, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrAccountNotFound) {
			return SignInResult{}, apperror.Internal(errors.Wrap(err, "find account"))
		}
		// keep the timing of unknown usernames close to wrong passwords
		_, _ = s.hasher.Verify(password, s.decoy)
		s.recordFailure(ctx, username)
		return SignInResult{}, apperror.Unauthorized(msgInvalidCredentials)
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Int64("account_id", account.ID).Msg("stored password hash unreadable")
	}
	if !ok {
		s.recordFailure(ctx, username)
		return SignInResult{}, apperror.Unauthorized(msgInvalidCredentials)
	}

	accessToken, err := s.issueAccess(account)
	if err != nil {
		return SignInResult{}, err
	}

	refreshToken, refreshExpiresAt, err := s.signer.SignRefresh(
		security.RefreshClaims{AccountID: account.ID},
		s.cfg.RefreshSecret,
		s.cfg.RefreshTTL,
	)
	if err != nil {
		return SignInResult{}, apperror.Internal(errors.Wrap(err, "sign refresh token"))
	}

	if err := s.sessions.Set(ctx, account.ID, refreshToken, refreshExpiresAt); err != nil {
		return SignInResult{}, apperror.Internal(errors.Wrap(err, "store refresh session"))
	}

	if err := s.limiter.Reset(ctx, username); err != nil {
		s.log.Warn().Err(err).Msg("reset sign-in attempts failed")
	}

	s.log.Info().Int64("account_id", account.ID).Msg("signed in")
	return SignInResult{
		Account:       account,
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessCookie:  s.cookies.access(accessToken),
		RefreshCookie: s.cookies.refresh(refreshToken),
	}, nil
}

// Refresh mints a new access token for an account whose refresh token has
// already been checked. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, accountID int64) (Cookie, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return Cookie{}, apperror.Unauthorized(msgInvalidRefreshToken)
		}
		return Cookie{}, apperror.Internal(errors.Wrap(err, "find account"))
	}

	accessToken, err := s.issueAccess(account)
	if err != nil {
		return Cookie{}, err
	}
	return s.cookies.access(accessToken), nil
}

func (s *AuthService) SignOut(ctx context.Context, accountID int64) (LogoutCookies, error) {
	if err := s.sessions.Clear(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return LogoutCookies{}, apperror.Unauthorized(msgInvalidRefreshToken)
		}
		return LogoutCookies{}, apperror.Internal(errors.Wrap(err, "clear refresh session"))
	}

	s.log.Info().Int64("account_id", accountID).Msg("signed out")
	return s.CookiesForLogOut(), nil
}

// CookiesForLogOut returns expired envelopes for both token cookies.
func (s *AuthService) CookiesForLogOut() LogoutCookies {
	return s.cookies.logout()
}

func (s *AuthService) Account(ctx context.Context, accountID int64) (models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.Account{}, apperror.NotFound("account not found")
		}
		return models.Account{}, apperror.Internal(errors.Wrap(err, "find account"))
	}
	return account, nil
}

// Sessions exposes the session store the refresh guard validates against.
func (s *AuthService) Sessions() *repository.SessionStore {
	return s.sessions
}

func (s *AuthService) issueAccess(account models.Account) (string, error) {
	token, _, err := s.signer.SignAccess(security.AccessClaims{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      string(account.Role),
	}, s.cfg.AccessSecret, s.cfg.AccessTTL)
	if err != nil {
		return "", apperror.Internal(errors.Wrap(err, "sign access token"))
	}
	return token, nil
}

func (s *AuthService) recordFailure(ctx context.Context, username string) {
	if err := s.limiter.Fail(ctx, username); err != nil {
		s.log.Warn().Err(err).Msg("record sign-in failure")
	}
}

func (s *AuthService) decoyDigest() string {
	digest, err := s.hasher.Hash("decoy-password-for-unknown-users")
	if err != nil {
		s.log.Error().Err(err).Msg("decoy hash failed")
		return ""
	}
	return digest
}
