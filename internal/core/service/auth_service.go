package service

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fretemais/driver-directory/internal/core/domain"
	"github.com/fretemais/driver-directory/internal/core/ports"
)

// Credentials is the single operator account allowed to log in.
type Credentials struct {
	Username string
	Password string
}

// AuthService implements login against a configured credential pair.
type AuthService struct {
	issuer   ports.TokenIssuer
	creds    Credentials
	recorder LoginRecorder
	logger   zerolog.Logger
}

func NewAuthService(issuer ports.TokenIssuer, creds Credentials, logger zerolog.Logger, recorder LoginRecorder) *AuthService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &AuthService{issuer: issuer, creds: creds, recorder: recorder, logger: logger}
}

func (s *AuthService) Login(_ context.Context, username, password string) (domain.Token, error) {
	if username == "" || password == "" || !s.matches(username, password) {
		s.recorder.LoginAttempt(false)
		s.logger.Warn().Str("username", username).Msg("login rejected")
		return domain.Token{}, domain.ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(username)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to issue token")
		return domain.Token{}, fmt.Errorf("issue token: %w", err)
	}

	s.recorder.LoginAttempt(true)
	s.logger.Info().Str("username", username).Time("expires_at", token.ExpiresAt).Msg("login succeeded")
	return token, nil
}

// matches compares both fields in constant time and always evaluates both.
func (s *AuthService) matches(username, password string) bool {
	u := subtle.ConstantTimeCompare([]byte(username), []byte(s.creds.Username))
	p := subtle.ConstantTimeCompare([]byte(password), []byte(s.creds.Password))
	return u&p == 1
}
