//go:build linux

package mount

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensitiveDirsMatchesDocumentedSet(t *testing.T) {
	assert.ElementsMatch(t, []string{
		"/boot", "/dev", "/etc", "/home", "/mnt",
		"/opt", "/root", "/run", "/sbin", "/srv", "/sys",
	}, SensitiveDirs)
}

// TestSetupRequiresOwnNamespace documents that Setup mutates the
// process-wide mount table and must only ever run after the caller has
// unshared a mount namespace (done by the clone3 CLONE_NEWNS flag in
// production). Running it unguarded in the test's own namespace would
// corrupt the test host, so this only runs opt-in.
func TestSetupRequiresOwnNamespace(t *testing.T) {
	if os.Getenv("CODEGOAT_TEST_MOUNT_NAMESPACE") == "" {
		t.Skip("set CODEGOAT_TEST_MOUNT_NAMESPACE=1 inside an already-unshared mount namespace to run")
	}
	require.NoError(t, Setup(""))
}
