package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuntikone/workforce-backend/internal/model"
)

func strptr(s string) *string { return &s }

func workDayFixture(t *testing.T) (*WorkDayService, *fakeStore, *model.User, *model.User, *model.User) {
	t.Helper()
	f := newFakeStore()
	companyID := f.seedCompany("Acme Oy")
	supervisor := f.seedUser(companyID, "super@acme.test", "x", model.RoleSupervisor)
	worker := f.seedUser(companyID, "worker@acme.test", "x", model.RoleWorker)
	otherID := f.seedCompany("Other Oy")
	outsider := f.seedUser(otherID, "out@other.test", "x", model.RoleSupervisor)
	return NewWorkDayService(f), f, supervisor, worker, outsider
}

func TestReportWorkDay(t *testing.T) {
	svc, _, _, worker, _ := workDayFixture(t)
	ctx := context.Background()

	w, err := svc.Report(ctx, worker, ShiftParams{
		Date:      "2026-08-03",
		StartTime: "08:00",
		EndTime:   strptr("16:30"),
		BreaksMin: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, "08:00:00", w.StartTime)
	require.NotNil(t, w.EndTime)
	assert.Equal(t, "16:30:00", *w.EndTime)

	// Second entry for the same date collides.
	_, err = svc.Report(ctx, worker, ShiftParams{Date: "2026-08-03", StartTime: "09:00"})
	assert.ErrorIs(t, err, ErrConflict)

	// Open-ended shift on another date is fine.
	w2, err := svc.Report(ctx, worker, ShiftParams{Date: "2026-08-04", StartTime: "08:15:30"})
	require.NoError(t, err)
	assert.Nil(t, w2.EndTime)
}

func TestReportWorkDayValidation(t *testing.T) {
	svc, _, _, worker, _ := workDayFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params ShiftParams
	}{
		{"bad date", ShiftParams{Date: "03.08.2026", StartTime: "08:00"}},
		{"bad start", ShiftParams{Date: "2026-08-03", StartTime: "8am"}},
		{"bad end", ShiftParams{Date: "2026-08-03", StartTime: "08:00", EndTime: strptr("late")}},
		{"negative breaks", ShiftParams{Date: "2026-08-03", StartTime: "08:00", BreaksMin: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Report(ctx, worker, tt.params)
			assert.ErrorIs(t, err, ErrInvalidShift)
		})
	}
}

func TestPunchInAndOut(t *testing.T) {
	svc, _, _, worker, _ := workDayFixture(t)
	ctx := context.Background()
	clock := time.Date(2026, 8, 3, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	w, err := svc.PunchIn(ctx, worker)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC), w.Date)
	assert.Equal(t, "08:00:00", w.StartTime)
	assert.Nil(t, w.EndTime)

	// The day already has an entry, punched or reported.
	_, err = svc.PunchIn(ctx, worker)
	assert.ErrorIs(t, err, ErrConflict)

	clock = clock.Add(8*time.Hour + 30*time.Minute)
	out, err := svc.PunchOut(ctx, worker)
	require.NoError(t, err)
	require.NotNil(t, out.EndTime)
	assert.Equal(t, "16:30:00", *out.EndTime)

	// Already closed.
	_, err = svc.PunchOut(ctx, worker)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestPunchOutWithoutOpenEntry(t *testing.T) {
	svc, _, _, worker, _ := workDayFixture(t)
	_, err := svc.PunchOut(context.Background(), worker)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestPurgeOlderThan(t *testing.T) {
	svc, f, _, worker, _ := workDayFixture(t)
	ctx := context.Background()

	_, err := svc.Report(ctx, worker, ShiftParams{Date: "2026-05-01", StartTime: "08:00"})
	require.NoError(t, err)
	kept, err := svc.Report(ctx, worker, ShiftParams{Date: "2026-08-03", StartTime: "08:00"})
	require.NoError(t, err)

	n, err := svc.PurgeOlderThan(ctx, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = f.FindWorkDayByID(ctx, kept.ID)
	assert.NoError(t, err)
	mine, err := svc.ListMine(ctx, worker)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestUpdateWorkDayOwnership(t *testing.T) {
	svc, _, supervisor, worker, outsider := workDayFixture(t)
	ctx := context.Background()

	w, err := svc.Report(ctx, worker, ShiftParams{Date: "2026-08-03", StartTime: "08:00"})
	require.NoError(t, err)

	// The owner edits their own entry; the date stays put even if the
	// client sends a different one.
	updated, err := svc.Update(ctx, worker, w.ID, ShiftParams{Date: "2026-12-24", StartTime: "09:00", EndTime: strptr("17:00")})
	require.NoError(t, err)
	assert.Equal(t, w.Date, updated.Date)
	assert.Equal(t, "09:00:00", updated.StartTime)

	// A same-company supervisor may edit it too.
	_, err = svc.Update(ctx, supervisor, w.ID, ShiftParams{Date: "2026-08-03", StartTime: "10:00"})
	assert.NoError(t, err)

	// A supervisor from another company may not.
	_, err = svc.Update(ctx, outsider, w.ID, ShiftParams{Date: "2026-08-03", StartTime: "10:00"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, worker, 9999, ShiftParams{Date: "2026-08-03", StartTime: "10:00"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDeleteWorkDay(t *testing.T) {
	svc, f, _, worker, outsider := workDayFixture(t)
	ctx := context.Background()

	w, err := svc.Report(ctx, worker, ShiftParams{Date: "2026-08-03", StartTime: "08:00"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, outsider, w.ID), ErrForbidden)

	require.NoError(t, svc.Delete(ctx, worker, w.ID))
	_, err = f.FindWorkDayByID(ctx, w.ID)
	assert.Error(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, worker, w.ID), ErrConflict)
}

func TestWorkDayPeerAccess(t *testing.T) {
	svc, f, _, worker, _ := workDayFixture(t)
	ctx := context.Background()
	peer := f.seedUser(worker.CompanyID, "peer@acme.test", "x", model.RoleWorker)

	w, err := svc.Report(ctx, worker, ShiftParams{Date: "2026-08-03", StartTime: "08:00"})
	require.NoError(t, err)

	// A fellow worker has no business editing someone else's entry.
	_, err = svc.Update(ctx, peer, w.ID, ShiftParams{Date: "2026-08-03", StartTime: "10:00"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListCompanyWorkDays(t *testing.T) {
	svc, _, supervisor, worker, outsider := workDayFixture(t)
	ctx := context.Background()

	_, err := svc.Report(ctx, worker, ShiftParams{Date: "2026-08-03", StartTime: "08:00"})
	require.NoError(t, err)
	_, err = svc.Report(ctx, supervisor, ShiftParams{Date: "2026-08-03", StartTime: "08:00"})
	require.NoError(t, err)
	_, err = svc.Report(ctx, outsider, ShiftParams{Date: "2026-08-03", StartTime: "08:00"})
	require.NoError(t, err)

	days, err := svc.ListCompany(ctx, supervisor)
	require.NoError(t, err)
	assert.Len(t, days, 2)

	_, err = svc.ListCompany(ctx, worker)
	assert.ErrorIs(t, err, ErrForbidden)

	mine, err := svc.ListMine(ctx, worker)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
