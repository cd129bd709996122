package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tuntikone/workforce-backend/internal/model"
)

// RequireRank rejects requests whose authenticated account ranks below
// min with 403. It assumes JWTAuth already ran.
func RequireRank(min model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok || !u.Role.AtLeast(min) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
