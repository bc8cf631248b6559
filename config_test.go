//go:build linux

package codegoat

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aintbe/codegoat/profile"
)

func TestResolveLimitsWithoutProfileReturnsRequestLimits(t *testing.T) {
	cpu := uint32(100)
	request := RunRequest{Limits: ResourceLimits{CPUTimeMs: &cpu}}
	limits, err := resolveLimits(request, nil)
	require.NoError(t, err)
	assert.Equal(t, &cpu, limits.CPUTimeMs)
}

func TestResolveLimitsLayersProfileUnderExplicitFields(t *testing.T) {
	dir := t.TempDir()
	store, err := profile.Open(filepath.Join(dir, "profiles.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put("cpp-strict", profile.Spec{Memory: "256MB"}))

	explicitCPU := uint32(250)
	request := RunRequest{
		ProfileName: "cpp-strict",
		Limits:      ResourceLimits{CPUTimeMs: &explicitCPU},
	}

	limits, err := resolveLimits(request, store)
	require.NoError(t, err)
	require.NotNil(t, limits.Memory)
	assert.Equal(t, uint64(256_000_000), limits.Memory.Uint64())
	require.NotNil(t, limits.CPUTimeMs)
	assert.Equal(t, explicitCPU, *limits.CPUTimeMs)
}

func TestResolveLimitsUnknownProfileFallsBackToRequestLimits(t *testing.T) {
	dir := t.TempDir()
	store, err := profile.Open(filepath.Join(dir, "profiles.db"))
	require.NoError(t, err)
	defer store.Close()

	cpu := uint32(100)
	request := RunRequest{ProfileName: "does-not-exist", Limits: ResourceLimits{CPUTimeMs: &cpu}}
	limits, err := resolveLimits(request, store)
	require.NoError(t, err)
	assert.Equal(t, &cpu, limits.CPUTimeMs)
}
