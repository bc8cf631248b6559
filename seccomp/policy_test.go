//go:build linux

package seccomp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "unsafe", PolicyUnsafe.String())
	assert.Equal(t, "strict", PolicyStrict.String())
	assert.Equal(t, "python", PolicyPython.String())
	assert.Equal(t, "unknown", Policy(99).String())
}

func TestNamesForPolicyStrictIsCommonOnly(t *testing.T) {
	names := namesForPolicy(PolicyStrict)
	assert.ElementsMatch(t, CommonRules, names)
}

func TestNamesForPolicyPythonIsUnionOfCommonAndPython(t *testing.T) {
	names := namesForPolicy(PolicyPython)
	assert.Len(t, names, len(CommonRules)+len(PythonRules))
	for _, want := range CommonRules {
		assert.Contains(t, names, want)
	}
	for _, want := range PythonRules {
		assert.Contains(t, names, want)
	}
}

func TestExecveIsConditionallyAllowedOnly(t *testing.T) {
	assert.NotContains(t, CommonRules, "execve")
	assert.Equal(t, []string{"execve"}, execSyscalls)
}

func TestFileSyscallsAreOpenAndOpenat(t *testing.T) {
	assert.ElementsMatch(t, []string{"open", "openat"}, fileSyscalls)
}
