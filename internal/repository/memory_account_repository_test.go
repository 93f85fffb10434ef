package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallery/internal/models"
	"gallery/internal/security"
)

func TestMemoryCreateAndFind(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, models.Account{Username: "alice", PasswordHash: "digest"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.False(t, created.HasSession())

	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = repo.Create(ctx, models.Account{Username: "alice", PasswordHash: "other"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = repo.FindByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = repo.FindByID(ctx, 42)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMemoryReturnsCopies(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, models.Account{Username: "alice"})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateRefreshFingerprint(ctx, created.ID, []byte{1, 2, 3}, nil))

	account, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	account.RefreshFingerprint[0] = 9

	again, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, again.RefreshFingerprint)
}

func TestMemoryClearExpiredRefreshSessions(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	expired, _ := repo.Create(ctx, models.Account{Username: "expired"})
	live, _ := repo.Create(ctx, models.Account{Username: "live"})
	require.NoError(t, repo.UpdateRefreshFingerprint(ctx, expired.ID, []byte("a"), &past))
	require.NoError(t, repo.UpdateRefreshFingerprint(ctx, live.ID, []byte("b"), &future))

	cleared, err := repo.ClearExpiredRefreshSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	got, _ := repo.FindByID(ctx, expired.ID)
	assert.False(t, got.HasSession())
	assert.Nil(t, got.RefreshExpiresAt)
	got, _ = repo.FindByID(ctx, live.ID)
	assert.True(t, got.HasSession())
}

func TestSessionStoreLifecycle(t *testing.T) {
	repo := NewMemoryAccountRepository()
	store := NewSessionStore(repo)
	ctx := context.Background()

	account, err := repo.Create(ctx, models.Account{Username: "alice"})
	require.NoError(t, err)

	_, err = store.Validate(ctx, account.ID, "token-1")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Set(ctx, account.ID, "token-1", time.Now().Add(time.Hour)))
	got, err := store.Validate(ctx, account.ID, "token-1")
	require.NoError(t, err)
	assert.Equal(t, security.Fingerprint("token-1"), got.RefreshFingerprint)

	// a newer session replaces the old one
	require.NoError(t, store.Set(ctx, account.ID, "token-2", time.Now().Add(time.Hour)))
	_, err = store.Validate(ctx, account.ID, "token-1")
	assert.ErrorIs(t, err, ErrSessionMismatch)
	_, err = store.Validate(ctx, account.ID, "token-2")
	assert.NoError(t, err)

	require.NoError(t, store.Clear(ctx, account.ID))
	_, err = store.Validate(ctx, account.ID, "token-2")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = store.Validate(ctx, 404, "token-2")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.ErrorIs(t, store.Clear(ctx, 404), ErrAccountNotFound)
}

func TestSessionStoreConcurrentSetKeepsOneSession(t *testing.T) {
	repo := NewMemoryAccountRepository()
	store := NewSessionStore(repo)
	ctx := context.Background()
	account, err := repo.Create(ctx, models.Account{Username: "alice"})
	require.NoError(t, err)

	tokens := []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7"}
	var wg sync.WaitGroup
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			_ = store.Set(ctx, account.ID, token, time.Now().Add(time.Hour))
		}(token)
	}
	wg.Wait()

	valid := 0
	for _, token := range tokens {
		if _, err := store.Validate(ctx, account.ID, token); err == nil {
			valid++
		}
	}
	assert.Equal(t, 1, valid)
}
