package toggl

import (
	"fmt"
	"time"
)

// LimitStore persists throttle state per scope so repeated sync attempts
// across process restarts do not hammer an already-throttled scope.
// A zero reset time means the scope has no recorded throttle.
type LimitStore interface {
	GetThrottle(scope string) (resetAt time.Time, err error)
	SetThrottle(scope string, resetAt time.Time) error
	ClearThrottle(scope string) error
}

// LimitTracker answers "is it safe to call now" for the provider's two
// quota classes. State is read before every call and written only when a
// throttling error is observed.
//
// The provider's quotas refill on a sliding window, so a recorded reset
// time is the earliest moment a new attempt might succeed, never a proof
// of guaranteed success: calls made by other processes in the interim can
// still exhaust the window. The tracker therefore clears its state as soon
// as the reset moment passes and lets the next call find out.
type LimitTracker struct {
	store LimitStore
	clock Clock
}

// NewLimitTracker creates a tracker over the given persistent store.
func NewLimitTracker(store LimitStore, clock Clock) *LimitTracker {
	if clock == nil {
		clock = RealClock{}
	}
	return &LimitTracker{store: store, clock: clock}
}

// RecordThrottle persists that calls to scope must not be attempted
// before resetAt.
func (t *LimitTracker) RecordThrottle(scope Scope, resetAt time.Time) error {
	if err := t.store.SetThrottle(string(scope), resetAt); err != nil {
		return fmt.Errorf("recording throttle for %s: %w", scope, err)
	}
	return nil
}

// IsThrottled reports whether the scope has an active throttle. A throttle
// whose reset time has passed is cleared and reported inactive.
func (t *LimitTracker) IsThrottled(scope Scope) (bool, error) {
	resetAt, err := t.store.GetThrottle(string(scope))
	if err != nil {
		return false, fmt.Errorf("reading throttle for %s: %w", scope, err)
	}
	if resetAt.IsZero() {
		return false, nil
	}
	if !t.clock.Now().Before(resetAt) {
		// Best effort: a failed clear only means one extra read next time.
		_ = t.store.ClearThrottle(string(scope))
		return false, nil
	}
	return true, nil
}

// TimeUntilReset returns how long until a new attempt on scope might
// succeed. Zero when the scope is not throttled.
func (t *LimitTracker) TimeUntilReset(scope Scope) (time.Duration, error) {
	resetAt, err := t.store.GetThrottle(string(scope))
	if err != nil {
		return 0, fmt.Errorf("reading throttle for %s: %w", scope, err)
	}
	if resetAt.IsZero() {
		return 0, nil
	}
	d := resetAt.Sub(t.clock.Now())
	if d < 0 {
		return 0, nil
	}
	return d, nil
}
