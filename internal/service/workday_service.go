package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tuntikone/workforce-backend/internal/model"
	"github.com/tuntikone/workforce-backend/internal/repository"
)

// ErrInvalidShift rejects a malformed work-day report (bad date or
// time format, negative breaks).
var ErrInvalidShift = errors.New("invalid shift")

// WorkDayService is the routine data-access glue for reported hours.
// Workers manage their own entries; supervisors can read and edit
// entries across their company.
type WorkDayService struct {
	ds  Datastore
	now func() time.Time
}

func NewWorkDayService(ds Datastore) *WorkDayService {
	return &WorkDayService{
		ds:  ds,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// ShiftParams describes one reported shift. Date is "2006-01-02",
// times are "15:04" or "15:04:05".
type ShiftParams struct {
	Date        string
	StartTime   string
	EndTime     *string
	BreaksMin   int
	Description *string
}

// Report records a shift for the user. One entry per date; a second
// report for the same date fails with ErrConflict.
func (s *WorkDayService) Report(ctx context.Context, user *model.User, p ShiftParams) (*model.WorkDay, error) {
	w, err := s.buildWorkDay(user.ID, p)
	if err != nil {
		return nil, err
	}
	if err := s.ds.CreateWorkDay(ctx, w); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, storagef("create work day", err)
	}
	return w, nil
}

// PunchIn opens today's entry at the current clock time. Fails with
// ErrConflict when today already has an entry, reported or punched.
func (s *WorkDayService) PunchIn(ctx context.Context, user *model.User) (*model.WorkDay, error) {
	now := s.now()
	w := &model.WorkDay{
		UserID:    user.ID,
		Date:      now.Truncate(24 * time.Hour),
		StartTime: now.Format("15:04:05"),
	}
	if err := s.ds.CreateWorkDay(ctx, w); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, storagef("punch in", err)
	}
	return w, nil
}

// PunchOut stamps the end time on today's open entry. Fails with
// ErrConflict when today has no entry or it is already closed.
func (s *WorkDayService) PunchOut(ctx context.Context, user *model.User) (*model.WorkDay, error) {
	now := s.now()
	w, err := s.ds.FindWorkDayByDate(ctx, user.ID, now.Truncate(24*time.Hour))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConflict
		}
		return nil, storagef("find today's entry", err)
	}
	if w.EndTime != nil {
		return nil, ErrConflict
	}
	end := now.Format("15:04:05")
	w.EndTime = &end
	if err := s.ds.UpdateWorkDay(ctx, w); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConflict
		}
		return nil, storagef("punch out", err)
	}
	return w, nil
}

// PurgeOlderThan deletes entries dated before the cutoff. Retention
// hygiene for the background sweep, never invoked on a request path.
func (s *WorkDayService) PurgeOlderThan(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.ds.DeleteWorkDaysBefore(ctx, before)
	if err != nil {
		return 0, storagef("purge work days", err)
	}
	return n, nil
}

// Update rewrites an entry. The owner may always edit their own;
// supervisors may edit any entry within their company.
func (s *WorkDayService) Update(ctx context.Context, actor *model.User, id uint64, p ShiftParams) (*model.WorkDay, error) {
	existing, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.buildWorkDay(existing.UserID, p)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.Date = existing.Date // the reported date is immutable
	if err := s.ds.UpdateWorkDay(ctx, updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConflict
		}
		return nil, storagef("update work day", err)
	}
	return updated, nil
}

// Delete removes an entry under the same ownership rules as Update.
func (s *WorkDayService) Delete(ctx context.Context, actor *model.User, id uint64) error {
	if _, err := s.authorized(ctx, actor, id); err != nil {
		return err
	}
	if err := s.ds.DeleteWorkDay(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrConflict
		}
		return storagef("delete work day", err)
	}
	return nil
}

// ListMine returns the caller's own entries.
func (s *WorkDayService) ListMine(ctx context.Context, user *model.User) ([]model.WorkDay, error) {
	out, err := s.ds.ListWorkDaysByUser(ctx, user.ID)
	if err != nil {
		return nil, storagef("list work days", err)
	}
	return out, nil
}

// ListCompany returns every entry in the actor's company. SUPERVISOR
// rank required.
func (s *WorkDayService) ListCompany(ctx context.Context, actor *model.User) ([]model.WorkDay, error) {
	if !actor.Role.AtLeast(model.RoleSupervisor) {
		return nil, ErrForbidden
	}
	out, err := s.ds.ListWorkDaysByCompany(ctx, actor.CompanyID)
	if err != nil {
		return nil, storagef("list company work days", err)
	}
	return out, nil
}

// authorized loads the entry and checks the actor may touch it: owner,
// or a supervisor of the owner's company.
func (s *WorkDayService) authorized(ctx context.Context, actor *model.User, id uint64) (*model.WorkDay, error) {
	w, err := s.ds.FindWorkDayByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConflict
		}
		return nil, storagef("find work day", err)
	}
	if w.UserID == actor.ID {
		return w, nil
	}
	if !actor.Role.AtLeast(model.RoleSupervisor) {
		return nil, ErrForbidden
	}
	owner, err := s.ds.FindUserByID(ctx, w.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, storagef("find owner", err)
	}
	if owner.CompanyID != actor.CompanyID {
		return nil, ErrForbidden
	}
	return w, nil
}

func (s *WorkDayService) buildWorkDay(userID uint64, p ShiftParams) (*model.WorkDay, error) {
	date, err := time.ParseInLocation("2006-01-02", p.Date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", ErrInvalidShift, p.Date)
	}
	start, err := normalizeClock(p.StartTime)
	if err != nil {
		return nil, err
	}
	var end *string
	if p.EndTime != nil && *p.EndTime != "" {
		e, err := normalizeClock(*p.EndTime)
		if err != nil {
			return nil, err
		}
		end = &e
	}
	if p.BreaksMin < 0 {
		return nil, fmt.Errorf("%w: negative breaks", ErrInvalidShift)
	}
	return &model.WorkDay{
		UserID:      userID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		BreaksMin:   p.BreaksMin,
		Description: p.Description,
	}, nil
}

func normalizeClock(s string) (string, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("%w: bad time %q", ErrInvalidShift, s)
}
