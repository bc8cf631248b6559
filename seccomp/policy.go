//go:build linux

// Package seccomp compiles a policy name into an ordered allowlist of
// seccomp-BPF rules whose default action is KILL_PROCESS.
package seccomp

// Policy names a syscall allowlist.
type Policy int

const (
	// PolicyUnsafe installs no filter at all; every syscall is
	// permitted. Intended for debugging or already-trusted code.
	PolicyUnsafe Policy = iota

	// PolicyStrict allows only CommonRules.
	PolicyStrict

	// PolicyPython allows CommonRules union PythonRules.
	PolicyPython
)

func (p Policy) String() string {
	switch p {
	case PolicyUnsafe:
		return "unsafe"
	case PolicyStrict:
		return "strict"
	case PolicyPython:
		return "python"
	default:
		return "unknown"
	}
}

// CommonRules is unconditionally allowed under every policy but Unsafe.
var CommonRules = []string{
	"brk", "close", "exit", "exit_group", "faccessat", "fstat", "futex",
	"getrandom", "lseek", "mmap", "mprotect", "munmap", "newfstatat",
	"pread64", "read", "readlink", "readlinkat", "readv", "rseq",
	"set_robust_list", "set_tid_address", "write", "writev",
}

// PythonRules is additionally allowed under PolicyPython.
var PythonRules = []string{
	"fcntl", "getdents64", "getegid", "geteuid", "getgid", "gettid",
	"getuid", "ioctl", "mremap", "rt_sigaction", "socket", "connect",
}

// execSyscalls get a conditional allow: arg0 must equal the address of
// the runner's own exe_path, so the runner can't re-exec anything else.
var execSyscalls = []string{"execve"}

// fileSyscalls get a conditional allow: arg1 must not carry O_WRONLY or
// O_RDWR, restricting file access to read-only. The same arg1 condition
// is applied to both open and openat, even though openat's flags
// occupy arg2; see DESIGN.md for why this is left as-is.
var fileSyscalls = []string{"open", "openat"}

// limitSyscalls get a conditional allow: arg2 must be 0, i.e. the call
// is a query (getrlimit-style), not a limit change.
var limitSyscalls = []string{"prlimit64"}
