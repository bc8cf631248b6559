//go:build linux

package seccomp

import (
	"fmt"
	"log/slog"

	libseccomp "github.com/seccomp/libseccomp-golang"
	"golang.org/x/sys/unix"

	"github.com/aintbe/codegoat/logger"
)

const (
	oWronlyOrRdwr = uint64(unix.O_WRONLY | unix.O_RDWR)
)

// Apply installs a seccomp-BPF filter for policy, whose default action
// is KILL_PROCESS. exePathAddr is the address of the byte buffer that
// will be passed as the pathname argument to the runner's own execve
// call; it must be the exact pointer used there, not a fresh conversion
// of the same string, or the execve condition will never match.
//
// Apply must run after mount/capabilities/rlimit/stdio and immediately
// before the runner blocks on the setup pipe, so sandbox setup itself
// is unconstrained but execve and everything after it runs filtered.
func Apply(policy Policy, exePathAddr uint64) error {
	if policy == PolicyUnsafe {
		logger.Log.Warn("running under the unsafe seccomp policy: all syscalls permitted")
		return nil
	}

	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil && err != unix.EINVAL {
		return fmt.Errorf("prctl(NO_NEW_PRIVS): %w", err)
	}

	filter, err := libseccomp.NewFilter(libseccomp.ActKillProcess)
	if err != nil {
		return fmt.Errorf("new seccomp filter: %w", err)
	}
	defer filter.Release()

	for _, name := range namesForPolicy(policy) {
		if err := allowUnconditional(filter, name); err != nil {
			return err
		}
	}

	execCond, err := libseccomp.MakeCondition(0, libseccomp.CompareEqual, exePathAddr)
	if err != nil {
		return fmt.Errorf("build execve condition: %w", err)
	}
	for _, name := range execSyscalls {
		if err := allowConditional(filter, name, execCond); err != nil {
			return err
		}
	}

	fileCond, err := libseccomp.MakeCondition(1, libseccomp.CompareMaskedEqual, oWronlyOrRdwr, 0)
	if err != nil {
		return fmt.Errorf("build file-access condition: %w", err)
	}
	for _, name := range fileSyscalls {
		if err := allowConditional(filter, name, fileCond); err != nil {
			return err
		}
	}

	limitCond, err := libseccomp.MakeCondition(2, libseccomp.CompareEqual, 0)
	if err != nil {
		return fmt.Errorf("build prlimit64 condition: %w", err)
	}
	for _, name := range limitSyscalls {
		if err := allowConditional(filter, name, limitCond); err != nil {
			return err
		}
	}

	if err := filter.Load(); err != nil {
		return fmt.Errorf("load seccomp filter: %w", err)
	}
	return nil
}

// namesForPolicy returns the unconditionally-allowed syscall names for
// policy, factored out so the composition logic is testable without
// touching the kernel seccomp facility.
func namesForPolicy(policy Policy) []string {
	if policy == PolicyPython {
		out := make([]string, 0, len(CommonRules)+len(PythonRules))
		out = append(out, CommonRules...)
		out = append(out, PythonRules...)
		return out
	}
	return CommonRules
}

func allowUnconditional(filter *libseccomp.ScmpFilter, name string) error {
	sc, err := libseccomp.GetSyscallFromName(name)
	if err != nil {
		// Syscall not known on this architecture/kernel; skip rather
		// than fail the whole policy.
		slog.Default().Debug("skipping unknown syscall in seccomp policy", slog.String("syscall", name))
		return nil
	}
	return filter.AddRule(sc, libseccomp.ActAllow)
}

func allowConditional(filter *libseccomp.ScmpFilter, name string, cond libseccomp.ScmpCondition) error {
	sc, err := libseccomp.GetSyscallFromName(name)
	if err != nil {
		return nil
	}
	return filter.AddRuleConditional(sc, libseccomp.ActAllow, []libseccomp.ScmpCondition{cond})
}
