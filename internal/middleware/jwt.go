// Package middleware provides the reusable HTTP middleware: access
// token authentication, role gating and rate limiting.
package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tuntikone/workforce-backend/internal/model"
	"github.com/tuntikone/workforce-backend/internal/service"
)

const userContextKey = "user"

// JWTAuth validates the Bearer access token on every request and
// resolves it to the calling account, which handlers read back via
// CurrentUser. Verification is signature+clock only except for the
// account lookup that attaches role and tenant.
func JWTAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			u, err := auth.IdentityFromToken(c.Request().Context(), header)
			if err != nil {
				if errors.Is(err, service.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(userContextKey, u)
			return next(c)
		}
	}
}

// CurrentUser returns the account JWTAuth resolved for this request.
func CurrentUser(c echo.Context) (*model.User, bool) {
	u, ok := c.Get(userContextKey).(*model.User)
	return u, ok
}
