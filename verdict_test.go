//go:build linux

package codegoat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIsAcceptedIdenticalFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "hello\nworld\n")
	ok, err := IsAccepted(a, a)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAcceptedIgnoresTrailingWhitespaceAndBlankLines(t *testing.T) {
	dir := t.TempDir()
	stdout := writeFile(t, dir, "stdout.txt", "hello  \nworld\n\n\n")
	answer := writeFile(t, dir, "answer.txt", "hello\nworld")
	ok, err := IsAccepted(stdout, answer)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAcceptedRejectsDifferentContent(t *testing.T) {
	dir := t.TempDir()
	stdout := writeFile(t, dir, "stdout.txt", "hello\n")
	answer := writeFile(t, dir, "answer.txt", "world\n")
	ok, err := IsAccepted(stdout, answer)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveVerdictPriorityCPUBeforeMemory(t *testing.T) {
	cpuLimit := uint32(500)
	memLimit := NewU63(1024)
	limits := ResourceLimits{CPUTimeMs: &cpuLimit, Memory: &memLimit}
	usage := ResourceUsage{CPUTimeMs: 600, MemoryPeakBytes: 2048}

	v := resolveVerdict(RunRequest{}, limits, usage, exitKindExited, 0, "")
	assert.Equal(t, StatusCPUTimeLimitExceeded, v.Status)
}

func TestResolveVerdictSignaledIsRuntimeError(t *testing.T) {
	v := resolveVerdict(RunRequest{}, ResourceLimits{}, ResourceUsage{}, exitKindSignaled, 0, "SIGSYS")
	assert.Equal(t, StatusRuntimeError, v.Status)
	require.NotNil(t, v.SignalName)
	assert.Equal(t, "SIGSYS", *v.SignalName)
}

func TestNonZeroExitVerdictIsRuntimeErrorWithoutUsage(t *testing.T) {
	v := nonZeroExitVerdict(1)
	assert.Equal(t, StatusRuntimeError, v.Status)
	require.NotNil(t, v.ExitCode)
	assert.Equal(t, 1, *v.ExitCode)
	assert.Nil(t, v.ResourceUsage)
}

func TestResolveVerdictZeroExitNoComparisonIsExited(t *testing.T) {
	v := resolveVerdict(RunRequest{}, ResourceLimits{}, ResourceUsage{}, exitKindExited, 0, "")
	assert.Equal(t, StatusExited, v.Status)
}

func TestResolveVerdictComparesOutputWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	stdout := writeFile(t, dir, "stdout.txt", "hello\n")
	answer := writeFile(t, dir, "answer.txt", "hello")

	request := RunRequest{StdoutPath: stdout, AnswerPath: answer}
	v := resolveVerdict(request, ResourceLimits{}, ResourceUsage{}, exitKindExited, 0, "")
	assert.Equal(t, StatusAccepted, v.Status)
}

func TestResolveVerdictWrongAnswer(t *testing.T) {
	dir := t.TempDir()
	stdout := writeFile(t, dir, "stdout.txt", "hello\n")
	answer := writeFile(t, dir, "answer.txt", "world")

	request := RunRequest{StdoutPath: stdout, AnswerPath: answer}
	v := resolveVerdict(request, ResourceLimits{}, ResourceUsage{}, exitKindExited, 0, "")
	assert.Equal(t, StatusWrongAnswer, v.Status)
}
