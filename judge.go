//go:build linux

// Package codegoat judges a single untrusted native program: it builds a
// throwaway Linux sandbox around it, enforces CPU/wall-clock/memory/stack/
// output/process-count limits, optionally diffs its stdout against an
// answer file, and returns a verdict.
package codegoat

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/aintbe/codegoat/cgroup"
	"github.com/aintbe/codegoat/logger"
	"github.com/aintbe/codegoat/rlimit"
	"github.com/aintbe/codegoat/runner"
	"github.com/aintbe/codegoat/watchdog"
)

// Judge is the library's synchronous, blocking entry point: it always
// returns exactly one Verdict, recovering from any panic in its own
// pipeline rather than letting it escape to the caller.
func Judge(request RunRequest) (verdict Verdict) {
	return JudgeWithProfiles(request, nil)
}

// JudgeWithProfiles is Judge extended with the judging-profile layer:
// when request.ProfileName is set and store is non-nil, the named
// profile's limits are used as the base, with any explicitly-set field
// on request.Limits overriding it.
func JudgeWithProfiles(request RunRequest, store *ProfileStore) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = verdictFromInternalError(newInternalErr(InternalErrorPanic, fmt.Sprintf("%v", r), nil), nil)
		}
	}()

	limits, err := resolveLimits(request, store)
	if err != nil {
		return verdictFromInternalError(newInternalErr(InternalErrorIO, "resolve profile", err), nil)
	}

	return judge(request, limits)
}

func judge(request RunRequest, limits ResourceLimits) Verdict {
	var memory *uint64
	if limits.Memory != nil {
		v := limits.Memory.Uint64()
		memory = &v
	}

	sandbox, err := cgroup.New(memory)
	if err != nil {
		return verdictFromInternalError(newInternalErr(InternalErrorCreateCgroup, "create cgroup", err), nil)
	}
	defer func() {
		if err := sandbox.Destroy(); err != nil {
			logger.Log.Warn("failed to destroy cgroup", "error", err)
		}
	}()

	hostname := request.Hostname
	if hostname == "" {
		hostname = runner.GenerateHostname()
	}

	process, err := runner.Clone(runner.Request{
		ExePath:    request.ExePath,
		Argv:       request.argv(),
		Envp:       request.Envs,
		StdinPath:  request.StdinPath,
		StdoutPath: request.StdoutPath,
		StderrPath: request.StderrPath,
		Hostname:   hostname,
		Policy:     request.Policy,
		Rlimits: rlimit.Limits{
			CPUTimeMs:    limits.CPUTimeMs,
			StackBytes:   limits.StackBytes,
			ProcessCount: limits.ProcessCount,
			OutputBytes:  limits.OutputBytes,
		},
	})
	if err != nil {
		return verdictFromInternalError(newInternalErr(InternalErrorClone, "clone runner", err), nil)
	}

	if err := sandbox.Attach(process.Pid); err != nil {
		// The runner is blocked on the setup pipe; it is safe to fail
		// here before it ever reaches execve.
		_ = unix.Kill(process.Pid, unix.SIGKILL)
		_ = unix.Close(process.SetupW)
		_ = runner.DrainAbort(process.AbortR)
		_, _, _, _ = runner.Wait(process.Pid)
		return verdictFromInternalError(newInternalErr(InternalErrorAddToCgroup, "attach to cgroup", err), nil)
	}

	var watchdogHandle *watchdog.Watchdog
	if limits.RealTimeMs != nil {
		watchdogHandle = watchdog.New(process.Pid, *limits.RealTimeMs)
	}
	defer func() {
		if watchdogHandle != nil {
			watchdogHandle.Stop()
		}
	}()

	if err := runner.SignalChild(process.SetupW); err != nil && !errors.Is(err, unix.EPIPE) {
		return verdictFromInternalError(newInternalErr(InternalErrorNotify, "signal runner", err), nil)
	}

	t0 := time.Now()
	exitCode, signaled, signalName, err := runner.Wait(process.Pid)
	if err != nil {
		kind := InternalErrorWait
		if errors.Is(err, runner.ErrUnsupportedWaitStatus) {
			kind = InternalErrorUnsupportedWait
		}
		return verdictFromInternalError(newInternalErr(kind, "wait for runner", err), nil)
	}
	elapsedMs := clampMs(time.Since(t0).Milliseconds())

	if watchdogHandle != nil {
		watchdogHandle.Stop()
		watchdogHandle = nil
	}

	abortMsg := runner.DrainAbort(process.AbortR)
	if abortMsg != "" {
		return verdictFromInternalError(newInternalErr(InternalErrorIO, abortMsg, nil), intPtr(exitCode))
	}

	// The runner exited non-zero on its own and the abort pipe was
	// empty: this is the untrusted program's own failure, reported
	// without ever reading cgroup counters or running the limit tests
	// below, matching the order the Judger's own steps run in.
	if !signaled && exitCode != 0 {
		return nonZeroExitVerdict(exitCode)
	}

	memoryPeak, err := sandbox.ReadMemoryPeak()
	if err != nil {
		return verdictFromInternalError(newInternalErr(InternalErrorReadCgroupMemoryStats, "read memory peak", err), intPtr(exitCode))
	}
	cpuTimeMs, err := sandbox.ReadCPUTimeMs()
	if err != nil {
		return verdictFromInternalError(newInternalErr(InternalErrorReadCgroupCPUStats, "read cpu time", err), intPtr(exitCode))
	}

	usage := ResourceUsage{
		MemoryPeakBytes: memoryPeak,
		CPUTimeMs:       cpuTimeMs,
		RealTimeMs:      elapsedMs,
	}

	kind := exitKindExited
	if signaled {
		kind = exitKindSignaled
	}
	verdict := resolveVerdict(request, limits, usage, kind, exitCode, signalName)
	logger.Log.Info("judgment complete", verdict.logAttr())
	return verdict
}
