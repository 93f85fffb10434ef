package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"gallery/internal/models"
	"gallery/internal/security"
)

var (
	ErrNoSession       = errors.New("account has no refresh session")
	ErrSessionMismatch = errors.New("refresh token does not match session")
)

// SessionStore manages the single refresh session slot of each account.
// Only the fingerprint of a refresh token is ever persisted.
type SessionStore struct {
	accounts AccountRepository
}

func NewSessionStore(accounts AccountRepository) *SessionStore {
	return &SessionStore{accounts: accounts}
}

// Set replaces any previous session of the account.
func (s *SessionStore) Set(ctx context.Context, accountID int64, refreshToken string, expiresAt time.Time) error {
	return s.accounts.UpdateRefreshFingerprint(ctx, accountID, security.Fingerprint(refreshToken), &expiresAt)
}

func (s *SessionStore) Clear(ctx context.Context, accountID int64) error {
	return s.accounts.UpdateRefreshFingerprint(ctx, accountID, nil, nil)
}

// Validate loads the account and checks refreshToken against its stored
// fingerprint.
func (s *SessionStore) Validate(ctx context.Context, accountID int64, refreshToken string) (models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return models.Account{}, err
	}
	if !account.HasSession() {
		return models.Account{}, ErrNoSession
	}
	if !security.MatchFingerprint(refreshToken, account.RefreshFingerprint) {
		return models.Account{}, ErrSessionMismatch
	}
	return account, nil
}

func (s *SessionStore) Sweep(ctx context.Context, now time.Time) (int64, error) {
	return s.accounts.ClearExpiredRefreshSessions(ctx, now)
}
