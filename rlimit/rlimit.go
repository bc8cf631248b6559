//go:build linux

// Package rlimit applies POSIX resource limits inside the runner,
// after mount setup. Memory is deliberately not enforced here; the
// cgroup sandbox owns that dimension because rlimits underestimate
// anonymous mapping cost.
package rlimit

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	mebiByte uint64 = 1 << 20
	megaByte uint64 = 1_000_000
)

// Limits mirrors the subset of codegoat.ResourceLimits this layer
// enforces.
type Limits struct {
	CPUTimeMs    *uint32
	StackBytes   *uint32
	ProcessCount *uint16
	OutputBytes  *uint32
}

// Apply sets RLIMIT_CPU, RLIMIT_NPROC, RLIMIT_STACK and RLIMIT_FSIZE.
// RLIMIT_NPROC is set to the configured count exactly; the other three
// get a margin above the configured limit so a kernel-enforced rlimit
// kill never preempts the cgroup/watchdog's own classification.
func Apply(limits Limits) error {
	if limits.CPUTimeMs != nil {
		seconds := cpuSeconds(*limits.CPUTimeMs)
		if err := setrlimit(unix.RLIMIT_CPU, seconds, seconds); err != nil {
			return fmt.Errorf("setrlimit RLIMIT_CPU: %w", err)
		}
	}
	if limits.ProcessCount != nil {
		n := uint64(*limits.ProcessCount)
		if err := setrlimit(unix.RLIMIT_NPROC, n, n); err != nil {
			return fmt.Errorf("setrlimit RLIMIT_NPROC: %w", err)
		}
	}
	if limits.StackBytes != nil {
		bytes := uint64(*limits.StackBytes) + mebiByte
		if err := setrlimit(unix.RLIMIT_STACK, bytes, bytes); err != nil {
			return fmt.Errorf("setrlimit RLIMIT_STACK: %w", err)
		}
	}
	if limits.OutputBytes != nil {
		bytes := uint64(*limits.OutputBytes) + megaByte
		if err := setrlimit(unix.RLIMIT_FSIZE, bytes, bytes); err != nil {
			return fmt.Errorf("setrlimit RLIMIT_FSIZE: %w", err)
		}
	}
	return nil
}

// cpuSeconds computes ceil((limitMs + max(limitMs/20, 1000)) / 1000),
// the margin that guarantees the cgroup/watchdog classify a CPU-time
// violation before the kernel issues an untraceable SIGKILL via
// RLIMIT_CPU.
func cpuSeconds(limitMs uint32) uint64 {
	limit := uint64(limitMs)
	margin := limit / 20
	if margin < 1000 {
		margin = 1000
	}
	total := limit + margin
	return (total + 999) / 1000
}

func setrlimit(resource int, cur, max uint64) error {
	return unix.Setrlimit(resource, &unix.Rlimit{Cur: cur, Max: max})
}
