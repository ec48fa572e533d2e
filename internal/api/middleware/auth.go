package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/fretemais/driver-directory/internal/core/ports"
)

// Token rejection reasons passed to AuthConfig.OnReject.
const (
	RejectMissing = "missing"
	RejectInvalid = "invalid"
)

// AuthConfig configures the bearer token gate.
type AuthConfig struct {
	Verifier ports.TokenVerifier
	// Skipper exempts requests from the gate, e.g. PublicPaths.
	Skipper echomiddleware.Skipper
	// ContextKey receives the authenticated subject. Defaults to "subject".
	ContextKey string
	// OnReject is called with RejectMissing or RejectInvalid for every refused request.
	OnReject func(reason string)
}

// Auth verifies the bearer token of every non-skipped request and injects the
// token subject into the echo context.
func Auth(cfg AuthConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = echomiddleware.DefaultSkipper
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = "subject"
	}
	reject := func(reason, msg string) error {
		if cfg.OnReject != nil {
			cfg.OnReject(reason)
		}
		return echo.NewHTTPError(http.StatusUnauthorized, msg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return reject(RejectMissing, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return reject(RejectMissing, "invalid authorization header")
			}

			subject, ok := cfg.Verifier.Verify(strings.TrimSpace(parts[1]))
			if !ok {
				return reject(RejectInvalid, "invalid token")
			}

			c.Set(cfg.ContextKey, subject)
			return next(c)
		}
	}
}

// PublicPaths skips the gate for the exact paths given and for any path under
// a prefix ending in "/".
func PublicPaths(paths ...string) echomiddleware.Skipper {
	exact := make(map[string]struct{}, len(paths))
	var prefixes []string
	for _, p := range paths {
		if strings.HasSuffix(p, "/") {
			prefixes = append(prefixes, p)
			continue
		}
		exact[p] = struct{}{}
	}
	return func(c echo.Context) bool {
		path := c.Request().URL.Path
		if _, ok := exact[path]; ok {
			return true
		}
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}
}
