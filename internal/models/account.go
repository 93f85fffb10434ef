package models

import "time"

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleUser    Role = "USER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// Account is a persisted user. RefreshFingerprint holds the sha256 of the
// single live refresh token; nil means the account has no session.
type Account struct {
	ID                 int64
	Username           string
	PasswordHash       string
	Role               Role
	RefreshFingerprint []byte
	RefreshExpiresAt   *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (a Account) HasSession() bool {
	return len(a.RefreshFingerprint) > 0
}
