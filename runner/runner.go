//go:build linux

// Package runner clones the process that will ultimately execve the
// untrusted program into new user/PID/mount/UTS namespaces, and, inside
// it, runs the mount, capability-drop, rlimit, stdio-redirect and
// seccomp-filter steps in order before blocking on the setup handshake.
package runner

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/aintbe/codegoat/capabilities"
	"github.com/aintbe/codegoat/mount"
	"github.com/aintbe/codegoat/rlimit"
	"github.com/aintbe/codegoat/seccomp"
)

// ErrUnsupportedWaitStatus is returned by Wait when Wait4 reports a
// status this package does not classify: stopped or continued, rather
// than exited or signaled.
var ErrUnsupportedWaitStatus = errors.New("unsupported wait status")

// Request bundles everything the cloned child needs to reach execve.
// It is assembled by the judger from a codegoat.RunRequest.
type Request struct {
	ExePath    string
	Argv       []string
	Envp       []string
	StdinPath  string
	StdoutPath string
	StderrPath string
	Hostname   string
	Policy     seccomp.Policy
	Rlimits    rlimit.Limits
}

// Process describes a cloned runner from the parent's side: the pid to
// wait on, the setup pipe's write end, and the abort pipe's read end.
type Process struct {
	Pid    int
	SetupW int
	AbortR int
}

// cloneArgs mirrors the Linux clone3 ABI (uapi/linux/sched.h).
type cloneArgs struct {
	Flags      uint64
	Pidfd      uint64
	ChildTid   uint64
	ParentTid  uint64
	ExitSignal uint64
	Stack      uint64
	StackSize  uint64
	TLS        uint64
	SetTid     uint64
	SetTidSize uint64
	Cgroup     uint64
}

const namespaceFlags = unix.CLONE_NEWUSER | unix.CLONE_NEWPID | unix.CLONE_NEWNS | unix.CLONE_NEWUTS

// Clone creates the runner child with clone3; the child runs its sandbox
// setup steps and then blocks on the setup pipe before execve. The
// caller is responsible for attaching
// Process.Pid to a cgroup, optionally arming a watchdog, and only then
// calling SignalChild(Process.SetupW) to release it.
func Clone(req Request) (*Process, error) {
	setupR, setupW, err := MakeSyncPipe()
	if err != nil {
		return nil, fmt.Errorf("create setup pipe: %w", err)
	}
	abortR, abortW, err := MakeSyncPipe()
	if err != nil {
		ClosePipe(setupR, setupW)
		return nil, fmt.Errorf("create abort pipe: %w", err)
	}

	// exePathBytes is converted exactly once. Its address is both the
	// seccomp execve condition's comparator and the pathname pointer
	// runChild later passes to the raw execve syscall; a second
	// unix.BytePtrFromString call on the same string would very likely
	// land at a different address and the condition would never match.
	exePathBytes, err := unix.BytePtrFromString(req.ExePath)
	if err != nil {
		ClosePipe(setupR, setupW)
		ClosePipe(abortR, abortW)
		return nil, fmt.Errorf("encode exe_path: %w", err)
	}
	exePathAddr := uint64(uintptr(unsafe.Pointer(exePathBytes)))

	args := cloneArgs{
		Flags:      uint64(namespaceFlags),
		ExitSignal: uint64(unix.SIGCHLD),
	}

	// RawSyscall, not Syscall: between clone3 and execve the child must
	// not re-enter the Go scheduler, which Syscall's bookkeeping would do.
	rawPid, _, errno := unix.RawSyscall(unix.SYS_CLONE3, uintptr(unsafe.Pointer(&args)), unsafe.Sizeof(args), 0)
	if errno != 0 {
		ClosePipe(setupR, setupW)
		ClosePipe(abortR, abortW)
		return nil, fmt.Errorf("clone3: %w", errno)
	}

	if rawPid == 0 {
		runChild(req, setupR, abortW, exePathBytes, exePathAddr)
		unix.Exit(127) // runChild always calls unix.Exit or execve's; unreachable.
	}

	_ = unix.Close(setupR) // the parent never reads the setup pipe
	_ = unix.Close(abortW) // the parent never writes the abort pipe

	return &Process{Pid: int(rawPid), SetupW: setupW, AbortR: abortR}, nil
}

// runChild runs the in-order sandbox sequence inside the cloned child:
// Mount -> Capabilities -> Rlimit -> Stdio -> SyscallPolicy.apply ->
// read setup -> execve. Any failure writes a reason to abortW and exits
// non-zero; runChild never returns.
func runChild(req Request, setupR, abortW int, exePathBytes *byte, exePathAddr uint64) {
	if req.Hostname != "" {
		_ = unix.Sethostname([]byte(req.Hostname))
	}

	if err := mount.Setup(os.Getenv("SANDBOX_WORKSPACE")); err != nil {
		abortExit(abortW, "mount: "+err.Error())
	}

	if err := capabilities.Apply(capabilities.Default); err != nil {
		abortExit(abortW, "capabilities: "+err.Error())
	}

	if err := rlimit.Apply(req.Rlimits); err != nil {
		abortExit(abortW, "rlimit: "+err.Error())
	}

	if err := Redirect(req.StdinPath, req.StdoutPath, req.StderrPath); err != nil {
		abortExit(abortW, "stdio: "+err.Error())
	}

	if err := seccomp.Apply(req.Policy, exePathAddr); err != nil {
		abortExit(abortW, "seccomp: "+err.Error())
	}

	if err := WaitForParent(setupR); err != nil {
		abortExit(abortW, "setup handshake: "+err.Error())
	}

	argv, err := toCStringArray(req.Argv)
	if err != nil {
		abortExit(abortW, "encode argv: "+err.Error())
	}
	envp, err := toCStringArray(req.Envp)
	if err != nil {
		abortExit(abortW, "encode envp: "+err.Error())
	}

	_, _, errno := unix.RawSyscall(
		unix.SYS_EXECVE,
		uintptr(unsafe.Pointer(exePathBytes)),
		uintptr(unsafe.Pointer(&argv[0])),
		uintptr(unsafe.Pointer(&envp[0])),
	)
	// execve only returns on failure.
	abortExit(abortW, fmt.Sprintf("execve: %v", errno))
}

func abortExit(abortW int, reason string) {
	WriteAbort(abortW, reason)
	unix.Exit(1)
}

// toCStringArray converts a Go string slice into a NULL-terminated
// array of NULL-terminated C strings suitable for execve's argv/envp.
func toCStringArray(in []string) ([]*byte, error) {
	out := make([]*byte, 0, len(in)+1)
	for _, s := range in {
		b, err := unix.BytePtrFromString(s)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	out = append(out, nil)
	return out, nil
}

// Wait reaps the runner child and classifies its termination. It never
// returns EINTR to the caller.
func Wait(pid int) (exitCode int, signaled bool, signalName string, err error) {
	var ws unix.WaitStatus
	for {
		_, werr := unix.Wait4(pid, &ws, 0, nil)
		if werr == unix.EINTR {
			continue
		}
		if werr != nil {
			return 0, false, "", werr
		}
		break
	}
	if ws.Exited() {
		return ws.ExitStatus(), false, "", nil
	}
	if ws.Signaled() {
		return 0, true, unix.SignalName(ws.Signal()), nil
	}
	return 0, false, "", fmt.Errorf("%w: %v", ErrUnsupportedWaitStatus, ws)
}
