package repository

import (
	"context"
	"sync"
	"time"

	"gallery/internal/models"
)

// MemoryAccountRepository keeps accounts in process. Each method holds the
// lock for its whole read or write so updates to one account are atomic.
type MemoryAccountRepository struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]models.Account
	byUsername map[string]int64
	now        func() time.Time
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byID:       make(map[int64]models.Account),
		byUsername: make(map[string]int64),
		now:        time.Now,
	}
}

func (r *MemoryAccountRepository) FindByUsername(_ context.Context, username string) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return models.Account{}, ErrAccountNotFound
	}
	return cloneAccount(r.byID[id]), nil
}

func (r *MemoryAccountRepository) FindByID(_ context.Context, id int64) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return models.Account{}, ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

func (r *MemoryAccountRepository) Create(_ context.Context, account models.Account) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[account.Username]; exists {
		return models.Account{}, ErrDuplicateUsername
	}

	r.nextID++
	now := r.now()
	account.ID = r.nextID
	if account.Role == "" {
		account.Role = models.RoleUser
	}
	account.RefreshFingerprint = nil
	account.RefreshExpiresAt = nil
	account.CreatedAt = now
	account.UpdatedAt = now

	r.byID[account.ID] = account
	r.byUsername[account.Username] = account.ID
	return cloneAccount(account), nil
}

func (r *MemoryAccountRepository) UpdateRefreshFingerprint(_ context.Context, id int64, fingerprint []byte, expiresAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return ErrAccountNotFound
	}

	if fingerprint == nil {
		account.RefreshFingerprint = nil
		account.RefreshExpiresAt = nil
	} else {
		account.RefreshFingerprint = append([]byte(nil), fingerprint...)
		account.RefreshExpiresAt = copyTime(expiresAt)
	}
	account.UpdatedAt = r.now()
	r.byID[id] = account
	return nil
}

func (r *MemoryAccountRepository) ClearExpiredRefreshSessions(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cleared int64
	for id, account := range r.byID {
		if account.RefreshExpiresAt == nil || account.RefreshExpiresAt.After(now) {
			continue
		}
		account.RefreshFingerprint = nil
		account.RefreshExpiresAt = nil
		account.UpdatedAt = r.now()
		r.byID[id] = account
		cleared++
	}
	return cleared, nil
}

// SetRole changes an account's role. There is no HTTP route for it; it
// seeds privileged accounts in tests and local setups.
func (r *MemoryAccountRepository) SetRole(id int64, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	account.Role = role
	r.byID[id] = account
	return nil
}

func cloneAccount(a models.Account) models.Account {
	if a.RefreshFingerprint != nil {
		a.RefreshFingerprint = append([]byte(nil), a.RefreshFingerprint...)
	}
	a.RefreshExpiresAt = copyTime(a.RefreshExpiresAt)
	return a
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
