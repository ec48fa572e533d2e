package ports

import (
	"context"

	"github.com/fretemais/driver-directory/internal/core/domain"
)

// TokenIssuer mints bearer tokens for an authenticated subject.
type TokenIssuer interface {
	Issue(subject string) (domain.Token, error)
}

// TokenVerifier checks a bearer token. It never returns an error: any
// malformed, forged or expired token yields ok == false.
type TokenVerifier interface {
	Verify(token string) (subject string, ok bool)
}

// AuthService exchanges the configured credential pair for a token.
type AuthService interface {
	Login(ctx context.Context, username, password string) (domain.Token, error)
}
