//go:build linux

// Package mount builds the filesystem view visible to the runner
// child. It runs only inside the runner child, after the child has
// entered a new mount namespace, and it never returns a partial
// failure: the caller treats any error as a hard failure of the
// runner.
package mount

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// SensitiveDirs is masked with an empty tmpfs when present. /bin, /lib,
// /lib64, /proc, /tmp, /usr and /var are deliberately left alone so the
// dynamic linker and standard runtimes stay usable.
var SensitiveDirs = []string{
	"/boot", "/dev", "/etc", "/home", "/mnt",
	"/opt", "/root", "/run", "/sbin", "/srv", "/sys",
}

const maskSize = 2 << 20 // 2 MiB

// Setup runs the mount sequence in order: privatize the mount
// namespace, remount root read-only, mask SensitiveDirs, and finally
// bind the workspace (if any) back in writable. workspace is the value
// of SANDBOX_WORKSPACE; an empty string means no workspace was
// configured.
func Setup(workspace string) error {
	if err := privatizeRoot(); err != nil {
		return fmt.Errorf("privatize mount namespace: %w", err)
	}
	if err := remountRootReadOnly(); err != nil {
		return fmt.Errorf("remount root read-only: %w", err)
	}
	if err := maskSensitiveDirs(); err != nil {
		return fmt.Errorf("mask sensitive directories: %w", err)
	}
	if workspace != "" {
		if err := bindWorkspace(workspace); err != nil {
			return fmt.Errorf("bind workspace %q: %w", workspace, err)
		}
	}
	return nil
}

// privatizeRoot marks / MS_PRIVATE|MS_REC so later mounts in this
// namespace never leak back to the host.
func privatizeRoot() error {
	return unix.Mount("", "/", "", unix.MS_PRIVATE|unix.MS_REC, "")
}

// remountRootReadOnly remounts / read-only with mode=000, recursively.
func remountRootReadOnly() error {
	return unix.Mount("", "/", "", unix.MS_BIND|unix.MS_REMOUNT|unix.MS_RDONLY|unix.MS_REC, "mode=000")
}

// maskSensitiveDirs mounts a 2MiB mode=000 tmpfs over every directory in
// SensitiveDirs that exists.
func maskSensitiveDirs() error {
	for _, dir := range SensitiveDirs {
		fi, err := os.Stat(dir)
		if err != nil || !fi.IsDir() {
			continue
		}
		if err := unix.Mount("tmpfs", dir, "tmpfs", 0, fmt.Sprintf("size=%d,mode=000", maskSize)); err != nil {
			return fmt.Errorf("mount tmpfs on %s: %w", dir, err)
		}
	}
	return nil
}

// bindWorkspace recursively bind-mounts workspace over itself, which
// strips the read-only overlay applied by remountRootReadOnly, and
// chdir's into it.
func bindWorkspace(workspace string) error {
	if err := unix.Mount(workspace, workspace, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
		return err
	}
	return unix.Chdir(workspace)
}
