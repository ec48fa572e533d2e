package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fretemais/driver-directory/internal/core/domain"
	"github.com/fretemais/driver-directory/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login exchanges the operator credentials for a bearer token.
//
// @Summary      Login
// @Description  Returns the signed token as a plain-text body. Rejected credentials yield an empty 401.
// @Tags         auth
// @Accept       json
// @Produce      plain
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {string}  string        "Bearer token"
// @Failure      400   {object}  errorResponse
// @Failure      401
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	token, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return c.NoContent(http.StatusUnauthorized)
		}
		return err
	}

	return c.String(http.StatusOK, token.Value)
}
