package refresh

import "time"

// Timer is a pending scheduled task.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. The loop uses it to re-enqueue itself
// after each cycle settles.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// TimeScheduler schedules on the runtime timer.
type TimeScheduler struct{}

func (TimeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
