package model

import "time"

// WorkDay is a single reported shift. A user may report at most one
// entry per calendar date (unique constraint on user_id + work_date).
// Times are stored as wall-clock strings ("15:04:05") because MySQL
// TIME columns carry no date or zone; Date is the UTC midnight of the
// reported day.
type WorkDay struct {
	ID          uint64
	UserID      uint64
	Date        time.Time
	StartTime   string
	EndTime     *string
	BreaksMin   int
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
