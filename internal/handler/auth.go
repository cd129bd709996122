package handler

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tuntikone/workforce-backend/internal/middleware"
	"github.com/tuntikone/workforce-backend/internal/model"
	"github.com/tuntikone/workforce-backend/internal/service"
)

// AuthHandler exposes registration, login, refresh, logout and
// password change.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordReq struct {
	NewPassword string `json:"new_password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID          uint64  `json:"id"`
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Role        string  `json:"role"`
}

type loginResp struct {
	User            userPart       `json:"user"`
	Access          tokenPart      `json:"access"`
	Refresh         tokenPart      `json:"refresh"`
	CompanyName     string         `json:"company_name"`
	CompanySettings map[string]any `json:"company_settings"`
}

func toUserPart(u *model.User) userPart {
	return userPart{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		Role:        string(u.Role),
	}
}

// Register creates an account for a pre-approved email. Role and
// company come from the approval entry, never from the client.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	u, err := h.Auth.Register(c.Request().Context(), service.RegisterParams{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": toUserPart(u)})
}

// Login accepts credentials either as an HTTP Basic Authorization
// header or as a JSON body, decodes them here and hands the service
// plain email/password. On success it returns the token pair plus the
// profile and company snapshot for client bootstrap.
func (h *AuthHandler) Login(c echo.Context) error {
	email, password, ok := basicCredentials(c)
	if !ok {
		var req loginReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		email, password = req.Email, req.Password
	}
	if strings.TrimSpace(email) == "" || password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	res, err := h.Auth.Login(c.Request().Context(), email, password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, loginResp{
		User:            toUserPart(res.User),
		Access:          tokenPart{Token: res.Access.Value, Expires: res.Access.Exp},
		Refresh:         tokenPart{Token: res.Refresh.Value, Expires: res.Refresh.Exp},
		CompanyName:     res.CompanyName,
		CompanySettings: res.CompanySettings,
	})
}

// Refresh exchanges a live refresh token for a new access token. The
// token may arrive in the JSON body or in the Authorization header,
// with or without a Bearer prefix.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	presented := strings.TrimSpace(req.RefreshToken)
	if presented == "" {
		presented = c.Request().Header.Get("Authorization")
	}
	if presented == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	access, err := h.Auth.Refresh(c.Request().Context(), presented)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Value, Expires: access.Exp},
	})
}

// Logout revokes every refresh token of the calling account,
// terminating all of its sessions. Idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Auth.Logout(c.Request().Context(), u); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword re-hashes the caller's credential and kills every
// other active session.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	if err := h.Auth.ChangePassword(c.Request().Context(), u, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the calling account's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// basicCredentials decodes an HTTP Basic Authorization header.
func basicCredentials(c echo.Context) (email, password string, ok bool) {
	header := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(header, "Basic ") {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(strings.TrimPrefix(header, "Basic ")))
	if err != nil {
		return "", "", false
	}
	email, password, ok = strings.Cut(string(decoded), ":")
	return email, password, ok
}
