package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"gallery/internal/ids"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

type AccessClaims struct {
	AccountID int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Type      string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims only identify the account; everything else is re-read
// from storage when the token is used.
type RefreshClaims struct {
	AccountID int64  `json:"id"`
	Type      string `json:"typ"`
	jwt.RegisteredClaims
}

type TokenSigner struct {
	now func() time.Time
}

func NewTokenSigner() *TokenSigner {
	return &TokenSigner{now: time.Now}
}

// NewTokenSignerWithClock is used by tests that need to move time.
func NewTokenSignerWithClock(now func() time.Time) *TokenSigner {
	return &TokenSigner{now: now}
}

func (s *TokenSigner) SignAccess(claims AccessClaims, secret string, ttl time.Duration) (string, time.Time, error) {
	claims.Type = TokenTypeAccess
	claims.RegisteredClaims = s.registered(ttl)
	token, err := s.sign(&claims, secret)
	return token, claims.ExpiresAt.Time, err
}

func (s *TokenSigner) SignRefresh(claims RefreshClaims, secret string, ttl time.Duration) (string, time.Time, error) {
	claims.Type = TokenTypeRefresh
	claims.RegisteredClaims = s.registered(ttl)
	token, err := s.sign(&claims, secret)
	return token, claims.ExpiresAt.Time, err
}

func (s *TokenSigner) VerifyAccess(token string, secret string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.verify(token, secret, claims); err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeAccess {
		return nil, errors.Wrapf(ErrTokenInvalid, "token type %q", claims.Type)
	}
	return claims, nil
}

func (s *TokenSigner) VerifyRefresh(token string, secret string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.verify(token, secret, claims); err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeRefresh {
		return nil, errors.Wrapf(ErrTokenInvalid, "token type %q", claims.Type)
	}
	return claims, nil
}

func (s *TokenSigner) registered(ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	// jti keeps tokens minted within the same second distinct
	return jwt.RegisteredClaims{
		ID:        ids.New(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *TokenSigner) sign(claims jwt.Claims, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("sign jwt: empty secret")
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "sign jwt")
	}
	return signed, nil
}

func (s *TokenSigner) verify(token string, secret string, claims jwt.Claims) error {
	if token == "" || secret == "" {
		return ErrTokenInvalid
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return errors.Wrap(ErrTokenInvalid, err.Error())
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
