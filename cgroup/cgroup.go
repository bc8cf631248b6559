//go:build linux

// Package cgroup manages a live cgroup v2 node that accounts and
// limits a runner's CPU and memory usage.
package cgroup

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
)

const (
	cgRoot   = "/sys/fs/cgroup"
	cgParent = "/sys/fs/cgroup/code-goat"

	period = 100_000 // 100ms, one full CPU's worth of quota.

	// MebiByte is the margin added on top of a caller-specified memory
	// limit so the kernel OOM-kills the runner above the user's limit,
	// making the violation detectable from cgroup counters rather than
	// inferred from a bare SIGKILL.
	MebiByte uint64 = 1 << 20
)

// Sandbox owns one cgroup v2 leaf node for the lifetime of a single
// judgment.
type Sandbox struct {
	path string
}

/**
 * Enables controllers for children of parentPath, matching the
 * subtree_control dance cgroup v2 delegation requires.
 */
func enableControllers(parentPath string, ctrls ...string) error {
	f, err := os.OpenFile(
		filepath.Join(parentPath, "cgroup.subtree_control"),
		os.O_WRONLY|syscall.O_CLOEXEC,
		0,
	)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, c := range ctrls {
		if _, err := f.WriteString("+" + c); err != nil && !errors.Is(err, syscall.EBUSY) {
			return err
		}
	}
	return nil
}

func ensureParent() error {
	if err := os.Mkdir(cgParent, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("mkdir %s: %w", cgParent, err)
	}
	if err := enableControllers(cgRoot, "cpu", "memory"); err != nil {
		return fmt.Errorf("enable controllers on %s: %w", cgRoot, err)
	}
	if err := enableControllers(cgParent, "cpu", "memory"); err != nil {
		return fmt.Errorf("enable controllers on %s: %w", cgParent, err)
	}
	return nil
}

// New creates a cgroup v2 leaf node named `code-goat-<uuid>` under the
// unified hierarchy, with period=quota=100_000µs (one full CPU) and
// swappiness=0. When memory is non-nil, memory.max is set to
// memory+1MiB so the kernel OOM-kills above the caller's limit.
func New(memory *uint64) (*Sandbox, error) {
	if err := ensureParent(); err != nil {
		return nil, err
	}

	leaf := filepath.Join(cgParent, "code-goat-"+uuid.New().String())
	if err := os.Mkdir(leaf, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", leaf, err)
	}

	if err := os.WriteFile(filepath.Join(leaf, "cpu.max"), []byte(fmt.Sprintf("%d %d", period, period)), 0o644); err != nil {
		_ = os.Remove(leaf)
		return nil, fmt.Errorf("write cpu.max: %w", err)
	}
	if err := os.WriteFile(filepath.Join(leaf, "memory.swappiness"), []byte("0"), 0o644); err != nil {
		// Not every kernel/cgroup driver exposes swappiness at this level; best-effort.
		_ = err
	}

	if memory != nil {
		limit := *memory + MebiByte
		if limit < *memory {
			limit = ^uint64(0) // overflow guard: saturate; caller already saturated via U63 upstream
		}
		if err := os.WriteFile(filepath.Join(leaf, "memory.max"), []byte(strconv.FormatUint(limit, 10)), 0o644); err != nil {
			_ = os.Remove(leaf)
			return nil, fmt.Errorf("write memory.max: %w", err)
		}
		_ = os.WriteFile(filepath.Join(leaf, "memory.swap.max"), []byte("0"), 0o644)
	}

	return &Sandbox{path: leaf}, nil
}

// Attach moves pid (by TGID) into the cgroup.
func (s *Sandbox) Attach(pid int) error {
	if err := os.WriteFile(filepath.Join(s.path, "cgroup.procs"), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("attach pid %d to cgroup: %w", pid, err)
	}
	return nil
}

// ReadMemoryPeak reads memory.peak (or, on kernels lacking that file,
// the next best max-usage counter).
func (s *Sandbox) ReadMemoryPeak() (uint64, error) {
	for _, name := range []string{"memory.peak", "memory.max_usage_in_bytes"} {
		b, err := os.ReadFile(filepath.Join(s.path, name))
		if err == nil {
			return strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
		}
	}
	return 0, fmt.Errorf("no memory peak counter available under %s", s.path)
}

// ReadCPUTimeMs parses cpu.stat's usage_usec field and integer-divides
// it by 1000 to produce milliseconds.
func (s *Sandbox) ReadCPUTimeMs() (uint32, error) {
	b, err := os.ReadFile(filepath.Join(s.path, "cpu.stat"))
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(string(b), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == "usage_usec" {
			usec, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return 0, err
			}
			return uint32(usec / 1000), nil
		}
	}
	return 0, fmt.Errorf("usage_usec not found in cpu.stat")
}

// Destroy deletes the cgroup node. Failures are non-fatal to the caller
// (the node may already be gone, or stale from a prior crashed run) and
// must be logged by the caller rather than propagated.
func (s *Sandbox) Destroy() error {
	if s == nil || s.path == "" {
		return nil
	}
	if err := os.WriteFile(filepath.Join(s.path, "cgroup.kill"), []byte("1"), 0o644); err != nil && !errors.Is(err, os.ErrNotExist) {
		killStragglers(s.path)
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func killStragglers(path string) {
	b, err := os.ReadFile(filepath.Join(path, "cgroup.procs"))
	if err != nil {
		return
	}
	for _, f := range bytes.Fields(b) {
		if pid, err := strconv.Atoi(string(f)); err == nil {
			_ = syscall.Kill(pid, syscall.SIGKILL)
		}
	}
}
