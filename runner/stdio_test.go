//go:build linux

package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyNotFound(t *testing.T) {
	_, err := os.Open(filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, StdioNotFound, classify(err))
}

func TestClassifyIsDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := os.OpenFile(dir, os.O_WRONLY, 0)
	assert.Equal(t, StdioIsDirectory, classify(err))
}

func TestRedirectLeavesUnconfiguredDescriptorsAlone(t *testing.T) {
	// All three paths empty: Redirect must be a no-op and never error,
	// since the runner process's own stdio is about to be walled off by
	// the mount namespace and seccomp filter regardless.
	assert.NoError(t, Redirect("", "", ""))
}
