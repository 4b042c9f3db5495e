package ports

import "time"

// TimerToken names a timer slot. Arming a slot that is already armed supersedes it.
type TimerToken string

const (
	TimerStep      TimerToken = "step"
	TimerDeadman   TimerToken = "deadman"
	TimerAutoClose TimerToken = "auto_close"
	TimerRecovery  TimerToken = "recovery"
)

// Scheduler arms one-shot timers whose expiry is delivered back to the engine
// through the same serialized dispatch as snapshot notifications.
type Scheduler interface {
	After(d time.Duration, token TimerToken)
	Cancel(token TimerToken)
}
