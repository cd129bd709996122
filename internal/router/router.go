package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tuntikone/workforce-backend/internal/config"
	"github.com/tuntikone/workforce-backend/internal/handler"
	"github.com/tuntikone/workforce-backend/internal/middleware"
	"github.com/tuntikone/workforce-backend/internal/model"
	"github.com/tuntikone/workforce-backend/internal/service"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check, which
// load balancers and monitoring can use to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the authentication endpoints and the protected API
// surface. Unauthenticated operations live under /v1/auth and carry the
// rate limiter; everything under /v1 requires a valid access token.
// Supervisor and master endpoints additionally gate on minimum rank —
// finer checks (same company, can-grant) live in the service layer.
func RegisterAuth(e *echo.Echo, auth *service.AuthService, a *handler.AuthHandler, co *handler.CompanyHandler, wd *handler.WorkDayHandler, rl config.RateLimitConfig, rdb *redis.Client) {
	// Register, login and refresh do not require an existing session.
	// These are the endpoints worth brute-forcing, so the token bucket
	// applies here and nowhere else.
	g := e.Group("/v1/auth", middleware.RateLimit(rl, rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	// Everything below requires a live access token.
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(auth))

	v1.POST("/auth/logout", a.Logout)
	v1.GET("/me", a.Me)
	v1.PUT("/me/password", a.ChangePassword)

	// Self-service shift reporting, open to every rank.
	v1.POST("/workdays", wd.Report)
	v1.POST("/workdays/punch-in", wd.PunchIn)
	v1.POST("/workdays/punch-out", wd.PunchOut)
	v1.GET("/workdays", wd.Mine)
	v1.PUT("/workdays/:id", wd.Update)
	v1.DELETE("/workdays/:id", wd.Delete)

	// Settings are readable by any company member; only the write is
	// supervisor-gated.
	v1.GET("/company/settings", co.Settings)

	// Supervisor surface: directory, roster and company-wide hours.
	sup := v1.Group("/company", middleware.RequireRank(model.RoleSupervisor))
	sup.PUT("/settings", co.UpdateSettings)
	sup.GET("/workers", co.Workers)
	sup.GET("/workers/email", co.Approvals)
	sup.POST("/workers/add", co.AddApproval)
	sup.PUT("/workers/role", co.AssignRole)
	sup.GET("/workdays", wd.Company)

	// Master-only surface: renaming and removing approvals, deleting
	// accounts. The service re-checks the rank; the middleware just
	// fails fast.
	master := v1.Group("/company", middleware.RequireRank(model.RoleMaster))
	master.PUT("/workers/email", co.RenameApproval)
	master.DELETE("/workers/email", co.RemoveApproval)
	master.DELETE("/workers/:id", co.DeleteWorker)
}
