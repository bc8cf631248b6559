//go:build linux

// Package codegoat judges a single untrusted native program: it builds a
// throwaway Linux sandbox around it, enforces CPU/wall-clock/memory/stack/
// output/process-count limits, optionally diffs its stdout against an
// answer file, and returns a verdict.
package codegoat

import (
	"log/slog"
	"math"

	"github.com/aintbe/codegoat/seccomp"
)

// U63 is a saturating 63-bit unsigned integer. It exists because the
// cgroup memory-limit path mixes signed and unsigned 64-bit kernel
// interfaces; clamping at construction removes the need to handle a
// conversion error at every call site.
type U63 uint64

// MaxU63 is the largest value a U63 can hold.
const MaxU63 U63 = (1 << 63) - 1

// NewU63 saturates value at MaxU63 instead of overflowing.
func NewU63(value uint64) U63 {
	if value > uint64(MaxU63) {
		return MaxU63
	}
	return U63(value)
}

// Add returns a saturating sum of u and other.
func (u U63) Add(other uint64) U63 {
	sum := uint64(u) + other
	if sum < uint64(u) || sum > uint64(MaxU63) {
		return MaxU63
	}
	return U63(sum)
}

// Uint64 returns the value widened to an unsigned 64-bit integer.
func (u U63) Uint64() uint64 { return uint64(u) }

// Int64 returns the value widened to a signed 64-bit integer. It never
// goes negative because U63 is bounded at 2^63-1.
func (u U63) Int64() int64 { return int64(u) }

// Policy names a seccomp syscall allowlist. It is re-exported from the
// seccomp package so callers never have to import it directly to build
// a RunRequest.
type Policy = seccomp.Policy

// Re-export the policy constants for the same reason.
const (
	PolicyUnsafe = seccomp.PolicyUnsafe
	PolicyStrict = seccomp.PolicyStrict
	PolicyPython = seccomp.PolicyPython
)

// ResourceLimits bounds one dimension of a judged run each. A zero value
// (nil pointer) means that dimension is unlimited.
type ResourceLimits struct {
	Memory       *U63
	CPUTimeMs    *uint32
	RealTimeMs   *uint32
	StackBytes   *uint32
	ProcessCount *uint16
	OutputBytes  *uint32
}

// merge returns a copy of l with any field unset in l taken from base.
// Used to layer an explicit RunRequest.Limits on top of a named profile.
func (l ResourceLimits) merge(base ResourceLimits) ResourceLimits {
	out := l
	if out.Memory == nil {
		out.Memory = base.Memory
	}
	if out.CPUTimeMs == nil {
		out.CPUTimeMs = base.CPUTimeMs
	}
	if out.RealTimeMs == nil {
		out.RealTimeMs = base.RealTimeMs
	}
	if out.StackBytes == nil {
		out.StackBytes = base.StackBytes
	}
	if out.ProcessCount == nil {
		out.ProcessCount = base.ProcessCount
	}
	if out.OutputBytes == nil {
		out.OutputBytes = base.OutputBytes
	}
	return out
}

// RunRequest is the immutable input to one judgment.
type RunRequest struct {
	// ExePath is the absolute path to the program to execute. Required.
	ExePath string

	// StdinPath, StdoutPath, StderrPath, AnswerPath are optional file
	// paths used for stdio redirection and output comparison.
	StdinPath  string
	StdoutPath string
	StderrPath string
	AnswerPath string

	// Args is the argv vector. If its first element is not ExePath,
	// ExePath is prepended before the runner execve's.
	Args []string

	// Envs holds "KEY=VALUE" environment variable strings.
	Envs []string

	// Policy selects the seccomp syscall allowlist.
	Policy Policy

	// Limits bounds CPU time, wall time, memory, stack, output and
	// process count. Any field left nil is resolved from the named
	// profile (if any) and is otherwise unlimited.
	Limits ResourceLimits

	// ProfileName optionally names a preset registered in a
	// profile.Store; see the profile package. Fields explicitly set on
	// Limits always win over the profile's value for that field.
	ProfileName string

	// Hostname overrides the generated UTS hostname of the sandbox.
	Hostname string
}

// argv returns the argv vector that will be passed to execve, ensuring
// ExePath occupies position 0.
func (r RunRequest) argv() []string {
	if len(r.Args) > 0 && r.Args[0] == r.ExePath {
		return r.Args
	}
	out := make([]string, 0, len(r.Args)+1)
	out = append(out, r.ExePath)
	out = append(out, r.Args...)
	return out
}

// ResourceUsage is measured after a judged run completes.
type ResourceUsage struct {
	MemoryPeakBytes uint64 `json:"memory"`
	CPUTimeMs       uint32 `json:"cpu_time"`
	RealTimeMs      uint32 `json:"real_time"`
}

// Status is one of the eight verdict classifications a judgment may
// produce.
type Status string

const (
	StatusExited                Status = "Exited"
	StatusAccepted              Status = "Accepted"
	StatusWrongAnswer           Status = "WrongAnswer"
	StatusCPUTimeLimitExceeded  Status = "CpuTimeLimitExceeded"
	StatusRealTimeLimitExceeded Status = "RealTimeLimitExceeded"
	StatusMemoryLimitExceeded   Status = "MemoryLimitExceeded"
	StatusRuntimeError          Status = "RuntimeError"
	StatusInternalError         Status = "InternalError"
)

// Verdict is the total, tagged result of a judgment. Exactly one
// judgment always produces exactly one Verdict.
type Verdict struct {
	Status        Status         `json:"status"`
	Message       *string        `json:"message"`
	ExitCode      *int           `json:"exit_code"`
	SignalName    *string        `json:"signal"`
	ResourceUsage *ResourceUsage `json:"resource_usage"`
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// clampMs converts an int64 millisecond duration to a u32, saturating
// instead of wrapping; no real judgment runs anywhere near u32::MAX ms
// (~49 days).
func clampMs(ms int64) uint32 {
	if ms < 0 {
		return 0
	}
	if ms > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ms)
}

// logAttr is a convenience for attaching a Verdict to a slog record.
func (v Verdict) logAttr() slog.Attr {
	return slog.Group("verdict",
		slog.String("status", string(v.Status)),
	)
}
