package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoundTimerWarnsThenExpires(t *testing.T) {
	var warnings, expiries, warningsAtExpiry atomic.Int32
	timer := StartRoundTimer(60*time.Millisecond, 30*time.Millisecond, TimerHooks{
		Warn: func(context.Context) bool {
			warnings.Add(1)
			return true
		},
		Expire: func(context.Context) {
			warningsAtExpiry.Store(warnings.Load())
			expiries.Add(1)
		},
	})

	select {
	case <-timer.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not finish")
	}
	assert.Equal(t, int32(1), warnings.Load())
	assert.Equal(t, int32(1), expiries.Load())
	assert.Equal(t, int32(1), warningsAtExpiry.Load())
}

func TestRoundTimerCancelBeforeWarning(t *testing.T) {
	var fired atomic.Int32
	timer := StartRoundTimer(200*time.Millisecond, 50*time.Millisecond, TimerHooks{
		Warn:   func(context.Context) bool { fired.Add(1); return true },
		Expire: func(context.Context) { fired.Add(1) },
	})

	timer.Stop()
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, fired.Load())
}

func TestRoundTimerCancelAfterWarningSuppressesTimeout(t *testing.T) {
	warned := make(chan struct{})
	var expired atomic.Bool
	timer := StartRoundTimer(60*time.Millisecond, 40*time.Millisecond, TimerHooks{
		Warn: func(context.Context) bool {
			close(warned)
			return true
		},
		Expire: func(context.Context) { expired.Store(true) },
	})

	<-warned
	timer.Stop()
	time.Sleep(100 * time.Millisecond)
	assert.False(t, expired.Load())
}

func TestRoundTimerDeadRoundSkipsTimeout(t *testing.T) {
	var expired atomic.Bool
	timer := StartRoundTimer(20*time.Millisecond, 10*time.Millisecond, TimerHooks{
		Warn:   func(context.Context) bool { return false },
		Expire: func(context.Context) { expired.Store(true) },
	})
	timer.Wait()
	assert.False(t, expired.Load())
}

func TestNilRoundTimerIsStopped(t *testing.T) {
	var timer *RoundTimer
	timer.Cancel()
	timer.Wait()
	timer.Stop()
}
