//go:build linux

package rlimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCPUSecondsAppliesPercentMargin(t *testing.T) {
	// 40000ms -> margin = max(2000, 1000) = 2000 -> ceil(42000/1000) = 42
	assert.Equal(t, uint64(42), cpuSeconds(40000))
}

func TestCPUSecondsAppliesFloorMargin(t *testing.T) {
	// 500ms -> margin = max(25, 1000) = 1000 -> ceil(1500/1000) = 2
	assert.Equal(t, uint64(2), cpuSeconds(500))
}

func TestCPUSecondsNeverUndercutsLimit(t *testing.T) {
	for _, ms := range []uint32{1, 100, 999, 1000, 5000, 60000} {
		seconds := cpuSeconds(ms)
		limitSeconds := uint64(ms) / 1000
		if uint64(ms)%1000 != 0 {
			limitSeconds++
		}
		assert.GreaterOrEqual(t, seconds, limitSeconds+1, "margin must push RLIMIT_CPU at least one second past the cgroup/watchdog deadline for ms=%d", ms)
	}
}
