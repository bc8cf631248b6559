//go:build linux

// Package watchdog runs an independent thread that kills the runner if
// it exceeds its wall-clock limit, and that the caller always joins
// before returning.
package watchdog

import (
	"time"

	"golang.org/x/sys/unix"
)

// Watchdog owns one goroutine and one cancellation channel.
type Watchdog struct {
	cancel chan struct{}
	done   chan struct{}
}

// New arms a watchdog for pid with the given wall-clock limit in
// milliseconds. The watchdog's internal deadline is limitMs plus a
// margin of max(limitMs/20, 10ms), the same margin shape rlimit uses
// for RLIMIT_CPU, so a slightly-over-budget process is classified by
// the caller rather than killed untraceably. New must only be called
// when a real-time limit is actually configured; the caller owns
// deciding that.
func New(pid int, limitMs uint32) *Watchdog {
	w := &Watchdog{
		cancel: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	timeout := deadline(limitMs)
	go func() {
		defer close(w.done)
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-w.cancel:
			// The runner already exited; nothing to do.
		case <-timer.C:
			_ = unix.Kill(pid, unix.SIGKILL)
		}
	}()

	return w
}

// Stop sends a cancellation (ignoring the case where the timer has
// already fired) and joins the goroutine. The cancel must happen before
// the join or the join would block until the timer fires.
func (w *Watchdog) Stop() {
	w.cancel <- struct{}{}
	<-w.done
}

func deadline(limitMs uint32) time.Duration {
	margin := limitMs / 20
	if margin < 10 {
		margin = 10
	}
	return time.Duration(uint64(limitMs)+uint64(margin)) * time.Millisecond
}
