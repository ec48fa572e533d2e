package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SubjectKey is the echo context key under which the Auth middleware stores
// the authenticated subject.
const SubjectKey = "subject"

// ctxSubject returns the subject injected by the Auth middleware. An empty
// subject means the middleware did not run, which is reported as 401.
func ctxSubject(c echo.Context) (string, error) {
	subject, _ := c.Get(SubjectKey).(string)
	if subject == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication subject")
	}
	return subject, nil
}
