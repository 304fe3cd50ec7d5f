package tui

import "github.com/papapumpkin/critpath/internal/schedule"

// MsgScheduleLoaded carries a freshly computed schedule, or the error that
// prevented one, into the running program. Sent on every watch reload.
type MsgScheduleLoaded struct {
	Schedule *schedule.Schedule
	Err      error
}
