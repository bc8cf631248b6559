//go:build linux

package codegoat

import (
	"bufio"
	"os"
	"strings"
)

// exitKind distinguishes a normally-exited runner from one killed by a
// signal, the input VerdictResolver needs beyond raw usage numbers.
type exitKind int

const (
	exitKindExited exitKind = iota
	exitKindSignaled
)

// nonZeroExitVerdict reports a runner that exited non-zero on its own,
// without being signaled. It is checked before cgroup counters are
// read and before resolveVerdict's limit tests run, so no
// ResourceUsage is ever attached to it.
func nonZeroExitVerdict(exitCode int) Verdict {
	return Verdict{
		Status:   StatusRuntimeError,
		Message:  strPtr("process exited with non-zero status"),
		ExitCode: intPtr(exitCode),
	}
}

// resolveVerdict takes the configured limits, the measured usage and
// how the runner terminated, and applies the ordered tests below,
// returning the first match. The caller only reaches this once the
// non-zero-exit gate (nonZeroExitVerdict) has already passed, so
// exitCode here is always 0 except when kind is exitKindSignaled.
func resolveVerdict(request RunRequest, limits ResourceLimits, usage ResourceUsage, kind exitKind, exitCode int, signalName string) Verdict {
	if limits.CPUTimeMs != nil && usage.CPUTimeMs > 0 && usage.CPUTimeMs > *limits.CPUTimeMs {
		return Verdict{
			Status:        StatusCPUTimeLimitExceeded,
			ResourceUsage: &usage,
		}
	}
	if limits.RealTimeMs != nil && usage.RealTimeMs > *limits.RealTimeMs {
		return Verdict{
			Status:        StatusRealTimeLimitExceeded,
			ResourceUsage: &usage,
		}
	}
	if limits.Memory != nil && usage.MemoryPeakBytes > limits.Memory.Uint64() {
		return Verdict{
			Status:        StatusMemoryLimitExceeded,
			ResourceUsage: &usage,
		}
	}
	if kind == exitKindSignaled {
		return Verdict{
			Status:        StatusRuntimeError,
			SignalName:    strPtr(signalName),
			ResourceUsage: &usage,
		}
	}
	if request.StdoutPath != "" && request.AnswerPath != "" {
		accepted, err := IsAccepted(request.StdoutPath, request.AnswerPath)
		if err != nil {
			return verdictFromInternalError(newInternalErr(InternalErrorReadOutput, "compare output", err), intPtr(exitCode))
		}
		status := StatusWrongAnswer
		if accepted {
			status = StatusAccepted
		}
		return Verdict{
			Status:        status,
			ExitCode:      intPtr(exitCode),
			ResourceUsage: &usage,
		}
	}
	return Verdict{
		Status:        StatusExited,
		ExitCode:      intPtr(exitCode),
		ResourceUsage: &usage,
	}
}

// IsAccepted reads both files as text, trims trailing whitespace from
// each line, drops trailing blank lines, and compares what remains
// line-by-line. A missing trailing newline in either file does not
// affect the result.
func IsAccepted(stdoutPath, answerPath string) (bool, error) {
	a, err := readComparableLines(stdoutPath)
	if err != nil {
		return false, newInternalErr(InternalErrorReadOutput, "read "+stdoutPath, err)
	}
	b, err := readComparableLines(answerPath)
	if err != nil {
		return false, newInternalErr(InternalErrorReadOutput, "read "+answerPath, err)
	}
	if len(a) != len(b) {
		return false, nil
	}
	for i := range a {
		if a[i] != b[i] {
			return false, nil
		}
	}
	return true, nil
}

// readComparableLines reads path, right-trims each line, and drops any
// trailing blank lines.
func readComparableLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), " \t\r\n"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
