//go:build linux

package runner

import "golang.org/x/sys/unix"

// MakeSyncPipe creates an O_CLOEXEC pipe used for a one-shot parent/child
// handshake: either the setup latch or the abort channel.
func MakeSyncPipe() (r, w int, err error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		return -1, -1, err
	}
	return p[0], p[1], nil
}

// WaitForParent blocks on the setup pipe's read end until the parent
// writes the "go" byte, then closes it. Only called from inside the
// runner child.
func WaitForParent(rfd int) error {
	var one [1]byte
	_, err := unix.Read(rfd, one[:])
	_ = unix.Close(rfd)
	return err
}

// SignalChild writes the single "go" byte to the setup pipe and closes
// the write end. A broken-pipe error here means the child already
// aborted during setup; the caller treats that as benign.
func SignalChild(wfd int) error {
	_, err := unix.Write(wfd, []byte{1})
	cerr := unix.Close(wfd)
	if err != nil {
		return err
	}
	return cerr
}

// WriteAbort writes a human-readable reason to the abort pipe. Best
// effort only: the child is exiting regardless of whether this write
// succeeds.
func WriteAbort(wfd int, reason string) {
	_, _ = unix.Write(wfd, []byte(reason))
	_ = unix.Close(wfd)
}

// DrainAbort performs a non-blocking read to EOF on the abort pipe's
// read end, returning whatever the child wrote, or "" if nothing was.
// Must be called after waitpid returns, so the child's writes (if any)
// have a happens-before edge over this read.
func DrainAbort(rfd int) string {
	_ = unix.SetNonblock(rfd, true)
	var buf [4096]byte
	var out []byte
	for {
		n, err := unix.Read(rfd, buf[:])
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err != nil || n <= 0 {
			break
		}
	}
	_ = unix.Close(rfd)
	return string(out)
}

// ClosePipe closes both ends of a pipe, ignoring errors.
func ClosePipe(rfd, wfd int) {
	_ = unix.Close(rfd)
	_ = unix.Close(wfd)
}
