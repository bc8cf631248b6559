//go:build linux

// Package capabilities narrows the runner's Linux capability set before
// rlimits are applied, trimmed to the capabilities a single-threaded
// execve'ing runner can plausibly need: mount-management capabilities
// are dropped because the mount setup has already finished by the time
// this step runs.
package capabilities

import (
	"fmt"

	"github.com/moby/sys/capability"
)

// Default is the bounding/permitted/effective/inheritable set applied
// to the runner after mount setup and before rlimits.
var Default = []capability.Cap{
	capability.CAP_CHOWN,
	capability.CAP_DAC_OVERRIDE,
	capability.CAP_FOWNER,
	capability.CAP_FSETID,
	capability.CAP_SETGID,
	capability.CAP_SETUID,
	capability.CAP_KILL,
}

// Apply clears every existing capability set on the current process and
// replaces it with caps, then drops ambient capabilities.
func Apply(caps []capability.Cap) error {
	c, err := capability.NewPid2(0)
	if err != nil {
		return fmt.Errorf("get process capabilities: %w", err)
	}

	c.Clear(capability.BOUNDS)
	c.Set(capability.BOUNDING, caps...)

	c.Clear(capability.CAPS)
	c.Set(capability.PERMITTED, caps...)
	c.Set(capability.EFFECTIVE, caps...)
	c.Set(capability.INHERITABLE, caps...)

	c.Clear(capability.AMBIENT)

	if err := c.Apply(capability.CAPS | capability.BOUNDS | capability.AMBIENT); err != nil {
		return fmt.Errorf("apply capabilities: %w", err)
	}
	return nil
}
