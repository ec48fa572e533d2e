// Package security issues and verifies the stateless bearer tokens that gate
// the directory API. Tokens are HS256 JWTs carrying only sub, iat and exp;
// nothing is stored server-side, so there is no revocation.
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fretemais/driver-directory/internal/core/domain"
)

// DefaultTokenTTL is used when a non-positive TTL is configured.
const DefaultTokenTTL = 15 * time.Minute

var errEmptySecret = errors.New("security: signing secret must not be empty")

// TokenAuthority signs and verifies tokens with a single symmetric key.
type TokenAuthority struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option customises a TokenAuthority.
type Option func(*TokenAuthority)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *TokenAuthority) { a.now = now }
}

// NewTokenAuthority returns an authority for the given key and TTL. The key is
// copied so later mutation by the caller has no effect.
func NewTokenAuthority(secret string, ttl time.Duration, opts ...Option) (*TokenAuthority, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	a := &TokenAuthority{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// TTL returns the lifetime given to issued tokens.
func (a *TokenAuthority) TTL() time.Duration { return a.ttl }

// Issue signs a token for subject valid from now until now+TTL.
func (a *TokenAuthority) Issue(subject string) (domain.Token, error) {
	issuedAt := a.now().UTC().Truncate(jwt.TimePrecision)
	expiresAt := issuedAt.Add(a.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return domain.Token{}, err
	}

	return domain.Token{
		Value:     signed,
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify returns the token subject when the signature is valid and the token
// has not expired. Any failure yields ok == false.
func (a *TokenAuthority) Verify(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return "", false
	}
	if claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
