package store

import "time"

// Scheduler supplies the clock and the one-shot timers used for notification
// expiry. Tests substitute a manual implementation to control time.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	// Stop prevents the timer from firing and reports whether it was still
	// pending.
	Stop() bool
}

type systemScheduler struct{}

func SystemScheduler() Scheduler {
	return systemScheduler{}
}

func (systemScheduler) Now() time.Time {
	return time.Now()
}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
