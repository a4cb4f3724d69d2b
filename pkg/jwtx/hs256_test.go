package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/bartab-connect/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("an-hs256-secret-that-is-long-enough")

func mint(t *testing.T, claims jwtx.Claims) string {
	t.Helper()
	s, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	tok, err := s.Sign(claims)
	require.NoError(t, err)
	return tok
}

func TestHS256SignAndVerify(t *testing.T) {
	v, err := jwtx.NewVerifierHS256(testSecret, "bartab-auth", []string{"connect"}, 5*time.Second)
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims("user-1", []string{"connections:read"}, time.Minute,
		"bartab-auth", []string{"connect"}, time.Now())

	got, err := v.Verify(mint(t, claims))
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, []string{"connections:read"}, got.Scopes)
}

func TestHS256VerifyFailures(t *testing.T) {
	v, err := jwtx.NewVerifierHS256(testSecret, "bartab-auth", []string{"connect"}, 0)
	require.NoError(t, err)
	now := time.Now()

	t.Run("wrong issuer", func(t *testing.T) {
		tok := mint(t, jwtx.NewAccessClaims("u", nil, time.Minute, "other", []string{"connect"}, now))
		_, err := v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("wrong audience", func(t *testing.T) {
		tok := mint(t, jwtx.NewAccessClaims("u", nil, time.Minute, "bartab-auth", []string{"chat"}, now))
		_, err := v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})

	t.Run("expired", func(t *testing.T) {
		tok := mint(t, jwtx.NewAccessClaims("u", nil, time.Minute, "bartab-auth", []string{"connect"}, now.Add(-time.Hour)))
		_, err := v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("missing subject", func(t *testing.T) {
		tok := mint(t, jwtx.NewAccessClaims("", nil, time.Minute, "bartab-auth", []string{"connect"}, now))
		_, err := v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrNoSubject)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := jwtx.NewSignerHS256([]byte("not-the-same-secret"))
		require.NoError(t, err)
		tok, err := other.Sign(jwtx.NewAccessClaims("u", nil, time.Minute, "bartab-auth", []string{"connect"}, now))
		require.NoError(t, err)

		_, err = v.Verify(tok)
		require.Error(t, err)
	})

	t.Run("alg none rejected", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone,
			jwtx.NewAccessClaims("u", nil, time.Minute, "bartab-auth", []string{"connect"}, now),
		).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = v.Verify(tok)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("not.a.jwt")
		require.Error(t, err)
	})
}

func TestEmptySecretRejected(t *testing.T) {
	_, err := jwtx.NewVerifierHS256(nil, "", nil, 0)
	require.ErrorIs(t, err, jwtx.ErrEmptySecret)

	_, err = jwtx.NewSignerHS256(nil)
	require.ErrorIs(t, err, jwtx.ErrEmptySecret)
}
