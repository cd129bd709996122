// Package handler contains the HTTP handlers. Each handler binds and
// validates the request, calls the service layer and maps its sentinel
// errors onto HTTP status codes.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tuntikone/workforce-backend/internal/service"
)

// writeError maps a service error to a client response. Storage
// failures and anything unrecognized become a 500 without leaking
// detail.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, service.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	case errors.Is(err, service.ErrTokenExpired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrNotApproved):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "email not approved"})
	case errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, service.ErrEmailInUse):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already in use"})
	case errors.Is(err, service.ErrAlreadyApproved):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already approved"})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, service.ErrInvalidShift):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
