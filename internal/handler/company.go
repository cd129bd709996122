package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tuntikone/workforce-backend/internal/middleware"
	"github.com/tuntikone/workforce-backend/internal/model"
	"github.com/tuntikone/workforce-backend/internal/service"
)

// CompanyHandler covers company settings, the worker directory and
// the approved-email roster. Permission checks live in the service;
// the router only gates by minimum rank.
type CompanyHandler struct {
	Auth *service.AuthService
}

func NewCompanyHandler(auth *service.AuthService) *CompanyHandler {
	return &CompanyHandler{Auth: auth}
}

type approvalReq struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type renameApprovalReq struct {
	OldEmail string `json:"old_email"`
	NewEmail string `json:"new_email"`
}

type assignRoleReq struct {
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"`
}

type settingsReq struct {
	Settings map[string]any `json:"settings"`
}

type approvalPart struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	Consumed bool   `json:"consumed"`
}

// Settings returns the caller's company profile and settings blob.
func (h *CompanyHandler) Settings(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	company, err := h.Auth.CompanyForUser(c.Request().Context(), u)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":       company.ID,
		"name":     company.Name,
		"settings": company.Settings,
	})
}

// UpdateSettings replaces the company settings blob.
func (h *CompanyHandler) UpdateSettings(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req settingsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Settings == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "settings required"})
	}
	if err := h.Auth.UpdateCompanySettings(c.Request().Context(), u, req.Settings); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Workers lists every account in the caller's company.
func (h *CompanyHandler) Workers(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	users, err := h.Auth.ListWorkers(c.Request().Context(), u)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]userPart, 0, len(users))
	for i := range users {
		out = append(out, toUserPart(&users[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"workers": out})
}

// Approvals lists the company's approved-email roster.
func (h *CompanyHandler) Approvals(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entries, err := h.Auth.ListApprovals(c.Request().Context(), u)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]approvalPart, 0, len(entries))
	for _, e := range entries {
		out = append(out, approvalPart{Email: e.Email, Role: string(e.Role), Consumed: e.Consumed()})
	}
	return c.JSON(http.StatusOK, echo.Map{"approvals": out})
}

// AddApproval pre-approves an email for registration at a given role.
func (h *CompanyHandler) AddApproval(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req approvalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	entry, err := h.Auth.AddApproval(c.Request().Context(), u, req.Email, role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, approvalPart{Email: entry.Email, Role: string(entry.Role), Consumed: entry.Consumed()})
}

// RenameApproval changes the email on an unconsumed approval entry.
func (h *CompanyHandler) RenameApproval(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req renameApprovalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.OldEmail) == "" || strings.TrimSpace(req.NewEmail) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "old_email/new_email required"})
	}
	if err := h.Auth.RenameApproval(c.Request().Context(), u, req.OldEmail, req.NewEmail); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveApproval deletes an approval entry by email query parameter.
func (h *CompanyHandler) RemoveApproval(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	email := c.QueryParam("email")
	if strings.TrimSpace(email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	if err := h.Auth.RemoveApproval(c.Request().Context(), u, email); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AssignRole changes another account's role within the company.
func (h *CompanyHandler) AssignRole(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req assignRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}
	if err := h.Auth.AssignRole(c.Request().Context(), u, req.UserID, role); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteWorker removes an account together with its approval entry.
func (h *CompanyHandler) DeleteWorker(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if err := h.Auth.DeleteAccountAndApproval(c.Request().Context(), u, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
