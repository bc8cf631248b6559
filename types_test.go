//go:build linux

package codegoat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestU63SaturatesAtConstruction(t *testing.T) {
	assert.Equal(t, MaxU63, NewU63(math.MaxUint64))
	assert.Equal(t, U63(42), NewU63(42))
}

func TestU63AddSaturates(t *testing.T) {
	assert.Equal(t, MaxU63, MaxU63.Add(1))
	assert.Equal(t, U63(15), U63(10).Add(5))
}

func TestU63RoundTripsThroughSignedAndUnsigned(t *testing.T) {
	u := NewU63(123456)
	assert.Equal(t, uint64(123456), u.Uint64())
	assert.Equal(t, int64(123456), u.Int64())
	assert.GreaterOrEqual(t, MaxU63.Int64(), int64(0))
}

func TestArgvPrependsExePathWhenMissing(t *testing.T) {
	r := RunRequest{ExePath: "/usr/bin/prog", Args: []string{"--flag"}}
	assert.Equal(t, []string{"/usr/bin/prog", "--flag"}, r.argv())
}

func TestArgvLeavesExePathInPlace(t *testing.T) {
	r := RunRequest{ExePath: "/usr/bin/prog", Args: []string{"/usr/bin/prog", "--flag"}}
	assert.Equal(t, []string{"/usr/bin/prog", "--flag"}, r.argv())
}

func TestArgvWithNoArgs(t *testing.T) {
	r := RunRequest{ExePath: "/usr/bin/prog"}
	assert.Equal(t, []string{"/usr/bin/prog"}, r.argv())
}

func TestClampMsSaturatesAtUint32Max(t *testing.T) {
	assert.Equal(t, uint32(math.MaxUint32), clampMs(int64(math.MaxUint32)+1000))
	assert.Equal(t, uint32(0), clampMs(-5))
	assert.Equal(t, uint32(500), clampMs(500))
}

func TestResourceLimitsMergeKeepsExplicitFields(t *testing.T) {
	explicitCPU := uint32(100)
	baseCPU := uint32(200)
	baseMemory := NewU63(1024)

	explicit := ResourceLimits{CPUTimeMs: &explicitCPU}
	base := ResourceLimits{CPUTimeMs: &baseCPU, Memory: &baseMemory}

	merged := explicit.merge(base)
	assert.Equal(t, &explicitCPU, merged.CPUTimeMs)
	assert.Equal(t, &baseMemory, merged.Memory)
}
