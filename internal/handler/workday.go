package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tuntikone/workforce-backend/internal/middleware"
	"github.com/tuntikone/workforce-backend/internal/model"
	"github.com/tuntikone/workforce-backend/internal/service"
)

// WorkDayHandler covers shift reporting and the company-wide
// hours overview.
type WorkDayHandler struct {
	WorkDays *service.WorkDayService
}

func NewWorkDayHandler(wd *service.WorkDayService) *WorkDayHandler {
	return &WorkDayHandler{WorkDays: wd}
}

type shiftReq struct {
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     *string `json:"end_time"`
	BreaksMin   int     `json:"breaks_min"`
	Description *string `json:"description"`
}

type workDayPart struct {
	ID          uint64  `json:"id"`
	UserID      uint64  `json:"user_id"`
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     *string `json:"end_time,omitempty"`
	BreaksMin   int     `json:"breaks_min"`
	Description *string `json:"description,omitempty"`
}

func toWorkDayPart(w *model.WorkDay) workDayPart {
	return workDayPart{
		ID:          w.ID,
		UserID:      w.UserID,
		Date:        w.Date.Format("2006-01-02"),
		StartTime:   w.StartTime,
		EndTime:     w.EndTime,
		BreaksMin:   w.BreaksMin,
		Description: w.Description,
	}
}

func (r shiftReq) params() service.ShiftParams {
	return service.ShiftParams{
		Date:        r.Date,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		BreaksMin:   r.BreaksMin,
		Description: r.Description,
	}
}

// Report records a shift for the caller. One entry per date.
func (h *WorkDayHandler) Report(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req shiftReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	w, err := h.WorkDays.Report(c.Request().Context(), u, req.params())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toWorkDayPart(w))
}

// PunchIn opens today's shift at the current time.
func (h *WorkDayHandler) PunchIn(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	w, err := h.WorkDays.PunchIn(c.Request().Context(), u)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toWorkDayPart(w))
}

// PunchOut closes today's open shift.
func (h *WorkDayHandler) PunchOut(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	w, err := h.WorkDays.PunchOut(c.Request().Context(), u)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toWorkDayPart(w))
}

// Mine lists the caller's own reported shifts, newest first.
func (h *WorkDayHandler) Mine(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	days, err := h.WorkDays.ListMine(c.Request().Context(), u)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]workDayPart, 0, len(days))
	for i := range days {
		out = append(out, toWorkDayPart(&days[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"work_days": out})
}

// Company lists every shift across the caller's company.
func (h *WorkDayHandler) Company(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	days, err := h.WorkDays.ListCompany(c.Request().Context(), u)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]workDayPart, 0, len(days))
	for i := range days {
		out = append(out, toWorkDayPart(&days[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"work_days": out})
}

// Update edits an existing shift. The date itself is immutable.
func (h *WorkDayHandler) Update(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid work day id"})
	}
	var req shiftReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	w, err := h.WorkDays.Update(c.Request().Context(), u, id, req.params())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toWorkDayPart(w))
}

// Delete removes a shift.
func (h *WorkDayHandler) Delete(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid work day id"})
	}
	if err := h.WorkDays.Delete(c.Request().Context(), u, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
