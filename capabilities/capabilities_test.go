//go:build linux

package capabilities

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyDefaultSet(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("requires root to read/write the process capability sets")
	}
	require.NoError(t, Apply(Default))
}
