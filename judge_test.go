//go:build linux

package codegoat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireSandboxHost(t *testing.T) {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("requires root/CAP_SYS_ADMIN to create cgroups and namespaces")
	}
}

func TestJudgeTrueExitsCleanly(t *testing.T) {
	requireSandboxHost(t)

	v := Judge(RunRequest{ExePath: "/bin/true", Policy: PolicyUnsafe})
	require.Equal(t, StatusExited, v.Status)
	require.NotNil(t, v.ExitCode)
	require.Equal(t, 0, *v.ExitCode)
}

func TestJudgeFalseIsRuntimeError(t *testing.T) {
	requireSandboxHost(t)

	v := Judge(RunRequest{ExePath: "/bin/false", Policy: PolicyUnsafe})
	require.Equal(t, StatusRuntimeError, v.Status)
	require.NotNil(t, v.ExitCode)
	require.NotEqual(t, 0, *v.ExitCode)
}

func TestJudgeComparesOutputAgainstAnswer(t *testing.T) {
	requireSandboxHost(t)

	dir := t.TempDir()
	stdout := filepath.Join(dir, "stdout.txt")
	answer := filepath.Join(dir, "answer.txt")
	require.NoError(t, os.WriteFile(answer, []byte("hello"), 0o644))

	v := Judge(RunRequest{
		ExePath:    "/bin/echo",
		Args:       []string{"/bin/echo", "hello"},
		StdoutPath: stdout,
		AnswerPath: answer,
		Policy:     PolicyUnsafe,
	})
	require.Equal(t, StatusAccepted, v.Status)
}
