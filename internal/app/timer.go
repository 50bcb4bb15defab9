package app

import (
	"context"
	"time"
)

// TimerHooks are invoked from the timer goroutine. Warn reports whether the round is
// still alive; returning false ends the timer without a timeout.
// Both receive the timer's context, which is cancelled once Cancel is called.
type TimerHooks struct {
	Warn   func(ctx context.Context) bool
	Expire func(ctx context.Context)
}

// RoundTimer sleeps until the warning point, warns once, then sleeps the remaining lead
// time and expires the round. A nil *RoundTimer is a valid stopped timer.
type RoundTimer struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartRoundTimer launches the timer goroutine. A warning lead longer than the round
// is clamped to the round duration.
func StartRoundTimer(duration, warningLead time.Duration, hooks TimerHooks) *RoundTimer {
	if warningLead > duration {
		warningLead = duration
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &RoundTimer{cancel: cancel, done: make(chan struct{})}
	go t.run(ctx, duration-warningLead, warningLead, hooks)
	return t
}

func (t *RoundTimer) run(ctx context.Context, untilWarning, lead time.Duration, hooks TimerHooks) {
	defer close(t.done)

	if !sleep(ctx, untilWarning) {
		return
	}
	if hooks.Warn != nil && !hooks.Warn(ctx) {
		return
	}
	if !sleep(ctx, lead) {
		return
	}
	if hooks.Expire != nil {
		hooks.Expire(ctx)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return ctx.Err() == nil
	case <-ctx.Done():
		return false
	}
}

// Cancel requests the timer to stop without waiting for it.
func (t *RoundTimer) Cancel() {
	if t == nil {
		return
	}
	t.cancel()
}

// Wait blocks until the timer goroutine has returned.
// It must not be called while holding a lock the hooks acquire.
func (t *RoundTimer) Wait() {
	if t == nil {
		return
	}
	<-t.done
}

// Stop cancels the timer and waits for it to unwind.
func (t *RoundTimer) Stop() {
	t.Cancel()
	t.Wait()
}

// Done is closed once the timer goroutine has returned.
func (t *RoundTimer) Done() <-chan struct{} {
	return t.done
}
