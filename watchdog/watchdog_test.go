//go:build linux

package watchdog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeadlineAppliesPercentMargin(t *testing.T) {
	// 200ms -> margin = max(10, 10) = 10 -> 210ms
	assert.Equal(t, 210*time.Millisecond, deadline(200))
}

func TestDeadlineAppliesFloorMargin(t *testing.T) {
	// 50ms -> margin = max(2, 10) = 10 -> 60ms
	assert.Equal(t, 60*time.Millisecond, deadline(50))
}

func TestStopBeforeTimeoutDoesNotKill(t *testing.T) {
	// 1<<30 is above the kernel's largest possible pid, so even a stray
	// SIGKILL could not reach a real process. Using a timeout far longer
	// than the test and stopping immediately exercises the cancel branch
	// of the select.
	w := New(1<<30, 60_000)
	w.Stop()
}
