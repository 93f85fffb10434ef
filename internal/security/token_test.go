package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret"
	testRefreshSecret = "refresh-secret"
)

func TestSignAndVerifyAccess(t *testing.T) {
	signer := NewTokenSigner()

	token, expiresAt, err := signer.SignAccess(AccessClaims{AccountID: 7, Username: "alice", Role: "USER"}, testAccessSecret, time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 2*time.Second)

	claims, err := signer.VerifyAccess(token, testAccessSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.AccountID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "USER", claims.Role)
	assert.NotNil(t, claims.IssuedAt)
}

func TestSignAndVerifyRefresh(t *testing.T) {
	signer := NewTokenSigner()

	token, _, err := signer.SignRefresh(RefreshClaims{AccountID: 42}, testRefreshSecret, time.Hour)
	require.NoError(t, err)

	claims, err := signer.VerifyRefresh(token, testRefreshSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.AccountID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer := NewTokenSigner()

	token, _, err := signer.SignAccess(AccessClaims{AccountID: 1}, testAccessSecret, time.Minute)
	require.NoError(t, err)

	_, err = signer.VerifyAccess(token, testRefreshSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// an access token is not accepted where a refresh token is expected
	_, err = signer.VerifyRefresh(token, testRefreshSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyZeroTTLIsExpired(t *testing.T) {
	signer := NewTokenSigner()

	token, _, err := signer.SignAccess(AccessClaims{AccountID: 1}, testAccessSecret, 0)
	require.NoError(t, err)

	_, err = signer.VerifyAccess(token, testAccessSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyExpiresWithClock(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := NewTokenSignerWithClock(func() time.Time { return now })

	token, _, err := signer.SignRefresh(RefreshClaims{AccountID: 3}, testRefreshSecret, time.Hour)
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	_, err = signer.VerifyRefresh(token, testRefreshSecret)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = signer.VerifyRefresh(token, testRefreshSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsMalformedAndForeignAlgorithms(t *testing.T) {
	signer := NewTokenSigner()

	_, err := signer.VerifyAccess("", testAccessSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = signer.VerifyAccess("not.a.jwt", testAccessSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	claims := AccessClaims{
		AccountID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testAccessSecret))
	require.NoError(t, err)
	_, err = signer.VerifyAccess(hs512, testAccessSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = signer.VerifyAccess(none, testAccessSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRequiresExpiry(t *testing.T) {
	signer := NewTokenSigner()

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{AccountID: 1}).SignedString([]byte(testAccessSecret))
	require.NoError(t, err)

	_, err = signer.VerifyAccess(noExp, testAccessSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokensIssuedInSameSecondDiffer(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := NewTokenSignerWithClock(func() time.Time { return now })

	first, _, err := signer.SignRefresh(RefreshClaims{AccountID: 5}, testRefreshSecret, time.Hour)
	require.NoError(t, err)
	second, _, err := signer.SignRefresh(RefreshClaims{AccountID: 5}, testRefreshSecret, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.NotEqual(t, Fingerprint(first), Fingerprint(second))

	claims, err := signer.VerifyRefresh(first, testRefreshSecret)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	const shared = "shared-secret"
	signer := NewTokenSigner()

	refresh, _, err := signer.SignRefresh(RefreshClaims{AccountID: 7}, shared, time.Hour)
	require.NoError(t, err)
	_, err = signer.VerifyAccess(refresh, shared)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	access, _, err := signer.SignAccess(AccessClaims{AccountID: 7, Username: "alice", Role: "USER"}, shared, time.Hour)
	require.NoError(t, err)
	_, err = signer.VerifyRefresh(access, shared)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	claims, err := signer.VerifyAccess(access, shared)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, claims.Type)
}
