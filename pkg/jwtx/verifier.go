package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrEmptySecret = errors.New("jwtx: empty signing secret")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrNoSubject   = errors.New("jwtx: missing subject")
)

// HS256Verifier validates JWTs signed with a shared secret. The upstream
// identity service and this one share the secret; there is no JWKS here.
type HS256Verifier struct {
	secret []byte
	issuer string
	aud    []string
	leeway time.Duration
	now    func() time.Time
}

// NewVerifierHS256 creates a verifier. Empty issuer or audience disables that check.
func NewVerifierHS256(secret []byte, issuer string, aud []string, leeway time.Duration) (*HS256Verifier, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &HS256Verifier{
		secret: secret,
		issuer: issuer,
		aud:    aud,
		leeway: leeway,
		now:    time.Now,
	}, nil
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Time claims are checked below with our own clock and leeway.
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformed
	}

	if claims.Subject == "" {
		return Claims{}, ErrNoSubject
	}
	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.aud); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryWithLeeway(v.now().UTC(), v.leeway); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}
