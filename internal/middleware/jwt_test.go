package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuntikone/workforce-backend/internal/config"
	"github.com/tuntikone/workforce-backend/internal/model"
	"github.com/tuntikone/workforce-backend/internal/repository"
	"github.com/tuntikone/workforce-backend/internal/service"
	"github.com/tuntikone/workforce-backend/internal/utils"
)

// userOnlyStore serves exactly one account by email; everything else
// panics through the embedded interface.
type userOnlyStore struct {
	service.Datastore
	user *model.User
}

func (s *userOnlyStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.user != nil && s.user.Email == email {
		cp := *s.user
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func authFixture(t *testing.T, accessTTL time.Duration) (*service.AuthService, *utils.TokenCodec, *model.User) {
	t.Helper()
	u := &model.User{ID: 1, CompanyID: 1, Email: "worker@acme.test", Role: model.RoleWorker}
	store := &userOnlyStore{user: u}
	codec := utils.NewTokenCodec("test-signing-secret", accessTTL, time.Hour)
	noTx := func(ctx context.Context, fn func(tx service.Datastore) error) error { return fn(store) }
	return service.NewAuthService(store, noTx, codec, 4, nil), codec, u
}

func invoke(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	reached := false
	handler := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, reached
}

func TestJWTAuth(t *testing.T) {
	auth, codec, u := authFixture(t, 15*time.Minute)
	mw := JWTAuth(auth)

	t.Run("valid token reaches the handler", func(t *testing.T) {
		tok, err := codec.IssueAccess(u.Email, u.Role)
		require.NoError(t, err)
		rec, reached := invoke(t, mw, "Bearer "+tok.Value)
		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		rec, reached := invoke(t, mw, "")
		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "missing bearer token")
	})

	t.Run("garbage token", func(t *testing.T) {
		rec, reached := invoke(t, mw, "Bearer not.a.jwt")
		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid token")
	})

	t.Run("expired token", func(t *testing.T) {
		expiredAuth, expiredCodec, _ := authFixture(t, -time.Minute)
		tok, err := expiredCodec.IssueAccess(u.Email, u.Role)
		require.NoError(t, err)
		rec, reached := invoke(t, JWTAuth(expiredAuth), "Bearer "+tok.Value)
		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "token expired")
	})

	t.Run("token for a deleted account", func(t *testing.T) {
		otherAuth, otherCodec, _ := authFixture(t, 15*time.Minute)
		tok, err := otherCodec.IssueAccess("gone@acme.test", model.RoleWorker)
		require.NoError(t, err)
		rec, reached := invoke(t, JWTAuth(otherAuth), "Bearer "+tok.Value)
		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRank(t *testing.T) {
	run := func(t *testing.T, user *model.User, min model.Role) (int, bool) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/v1/company/workers", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if user != nil {
			c.Set(userContextKey, user)
		}
		reached := false
		handler := RequireRank(min)(func(c echo.Context) error {
			reached = true
			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, handler(c))
		return rec.Code, reached
	}

	supervisor := &model.User{ID: 1, Role: model.RoleSupervisor}
	worker := &model.User{ID: 2, Role: model.RoleWorker}

	code, reached := run(t, supervisor, model.RoleSupervisor)
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, code)

	code, reached = run(t, worker, model.RoleSupervisor)
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, code)

	code, reached = run(t, supervisor, model.RoleMaster)
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, code)

	// No authenticated user at all.
	code, reached = run(t, nil, model.RoleWorker)
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	mw := RateLimit(config.RateLimitConfig{Enabled: false}, nil)
	rec, reached := invoke(t, mw, "")
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Enabled but without a Redis client still fails open.
	mw = RateLimit(config.RateLimitConfig{Enabled: true}, nil)
	_, reached = invoke(t, mw, "")
	assert.True(t, reached)
}
