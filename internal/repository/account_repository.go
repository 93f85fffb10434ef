package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"gallery/internal/models"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrDuplicateUsername = errors.New("username already taken")
)

type AccountRepository interface {
	FindByUsername(ctx context.Context, username string) (models.Account, error)
	FindByID(ctx context.Context, id int64) (models.Account, error)
	Create(ctx context.Context, account models.Account) (models.Account, error)
	// UpdateRefreshFingerprint overwrites the account's session slot. A nil
	// fingerprint clears it.
	UpdateRefreshFingerprint(ctx context.Context, id int64, fingerprint []byte, expiresAt *time.Time) error
	ClearExpiredRefreshSessions(ctx context.Context, now time.Time) (int64, error)
}

type PostgresAccountRepository struct {
	db DB
}

func NewPostgresAccountRepository(db DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

const accountColumns = `id, username, password_hash, role, refresh_fingerprint, refresh_expires_at, created_at, updated_at`

func (r *PostgresAccountRepository) FindByUsername(ctx context.Context, username string) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, username))
	if err != nil {
		return models.Account{}, errors.Wrap(err, "find account by username")
	}
	return account, nil
}

func (r *PostgresAccountRepository) FindByID(ctx context.Context, id int64) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return models.Account{}, errors.Wrap(err, "find account by id")
	}
	return account, nil
}

func (r *PostgresAccountRepository) Create(ctx context.Context, account models.Account) (models.Account, error) {
	const query = `
		INSERT INTO accounts (username, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	if account.Role == "" {
		account.Role = models.RoleUser
	}

	err := r.db.QueryRow(ctx, query, account.Username, account.PasswordHash, string(account.Role)).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Account{}, ErrDuplicateUsername
		}
		return models.Account{}, errors.Wrap(err, "insert account")
	}
	return account, nil
}

func (r *PostgresAccountRepository) UpdateRefreshFingerprint(ctx context.Context, id int64, fingerprint []byte, expiresAt *time.Time) error {
	const query = `
		UPDATE accounts
		SET refresh_fingerprint = $2, refresh_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`

	if fingerprint == nil {
		expiresAt = nil
	}

	cmd, err := r.db.Exec(ctx, query, id, fingerprint, expiresAt)
	if err != nil {
		return errors.Wrap(err, "update refresh fingerprint")
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *PostgresAccountRepository) ClearExpiredRefreshSessions(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE accounts
		SET refresh_fingerprint = NULL, refresh_expires_at = NULL, updated_at = NOW()
		WHERE refresh_expires_at IS NOT NULL AND refresh_expires_at <= $1
	`

	cmd, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, errors.Wrap(err, "clear expired refresh sessions")
	}
	return cmd.RowsAffected(), nil
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var (
		account models.Account
		role    string
	)
	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&role,
		&account.RefreshFingerprint,
		&account.RefreshExpiresAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrAccountNotFound
		}
		return models.Account{}, err
	}
	account.Role = models.Role(role)
	return account, nil
}
