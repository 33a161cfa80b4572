package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("super-secret", DefaultTokenTTL)
	require.NoError(t, err)

	tok, err := issuer.Issue(42)
	require.NoError(t, err)

	sub, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, 42, sub)
}

func TestTokenIssuer_PayloadShape(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	issuer, err := NewTokenIssuer("k", DefaultTokenTTL, WithClock(fixedClock(issuedAt)))
	require.NoError(t, err)

	tok, err := issuer.Issue(7)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)

	assert.Equal(t, "HS256", parsed.Method.Alg())
	assert.EqualValues(t, 7, claims["id"])
	assert.EqualValues(t, issuedAt.Unix(), claims["iat"])
	assert.EqualValues(t, issuedAt.Add(86400*time.Second).Unix(), claims["exp"])
}

func TestTokenIssuer_ExpiresAfter24Hours(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	issuer, err := NewTokenIssuer("k", DefaultTokenTTL, WithClock(fixedClock(issuedAt)))
	require.NoError(t, err)
	tok, err := issuer.Issue(1)
	require.NoError(t, err)

	justBefore, err := NewTokenIssuer("k", DefaultTokenTTL, WithClock(fixedClock(issuedAt.Add(24*time.Hour-time.Second))))
	require.NoError(t, err)
	sub, err := justBefore.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, 1, sub)

	after, err := NewTokenIssuer("k", DefaultTokenTTL, WithClock(fixedClock(issuedAt.Add(24*time.Hour+time.Second))))
	require.NoError(t, err)
	_, err = after.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	t.Parallel()

	right, err := NewTokenIssuer("right-secret", time.Hour)
	require.NoError(t, err)
	wrong, err := NewTokenIssuer("wrong-secret", time.Hour)
	require.NoError(t, err)

	tok, err := right.Issue(3)
	require.NoError(t, err)

	_, err = wrong.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Malformed(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("k", time.Hour)
	require.NoError(t, err)

	_, err = issuer.Verify("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("k", time.Hour)
	require.NoError(t, err)

	claims := Claims{ID: 5, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = issuer.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsMissingSubject(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("k", time.Hour)
	require.NoError(t, err)

	tok, err := issuer.Issue(0)
	require.NoError(t, err)

	_, err = issuer.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenIssuer("", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)
}
