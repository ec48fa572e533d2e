package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/fretemais/driver-directory/internal/core/domain"
)

type stubAuthService struct {
	loginFn func(ctx context.Context, username, password string) (domain.Token, error)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (domain.Token, error) {
	return s.loginFn(ctx, username, password)
}

func newLoginContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (domain.Token, error) {
			if username != "admin" || password != "123456" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return domain.Token{Value: "signed.jwt.token", Subject: username}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newLoginContext(`{"username":"admin","password":"123456"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "signed.jwt.token" {
		t.Fatalf("expected raw token body, got %q", rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMETextPlain) {
		t.Fatalf("expected text/plain, got %q", ct)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (domain.Token, error) {
			return domain.Token{}, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newLoginContext(`{"username":"admin","password":"nope"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
}

func TestAuthHandler_Login_MalformedPayload(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (domain.Token, error) {
			t.Fatalf("service must not be called")
			return domain.Token{}, nil
		},
	})

	c, _ := newLoginContext(`{"username":`)
	err := handler.Login(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthHandler_Login_UnexpectedError(t *testing.T) {
	boom := errors.New("signer unavailable")
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (domain.Token, error) {
			return domain.Token{}, boom
		},
	})

	c, _ := newLoginContext(`{"username":"admin","password":"123456"}`)
	if err := handler.Login(c); !errors.Is(err, boom) {
		t.Fatalf("expected error to propagate, got %v", err)
	}
}
