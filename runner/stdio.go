//go:build linux

package runner

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// StdioKind classifies why opening a configured stdio path failed. It is
// recorded on StdioError only: the runner child reports a stdio failure
// to the judger as the error's text on the abort pipe, and the judger
// does not map it to a distinct InternalError kind.
type StdioKind int

const (
	StdioNotFound StdioKind = iota
	StdioPermissionDenied
	StdioIsDirectory
	StdioOther
)

// StdioError reports a failure to open or redirect one of the
// configured stdin/stdout/stderr paths.
type StdioError struct {
	Path string
	Kind StdioKind
	Err  error
}

func (e *StdioError) Error() string { return fmt.Sprintf("open %s: %v", e.Path, e.Err) }
func (e *StdioError) Unwrap() error { return e.Err }

func classify(err error) StdioKind {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return StdioNotFound
	case errors.Is(err, os.ErrPermission):
		return StdioPermissionDenied
	case errors.Is(err, unix.EISDIR):
		return StdioIsDirectory
	default:
		return StdioOther
	}
}

// Redirect opens each configured path and dup2's it onto descriptors
// 0/1/2. An empty path leaves the corresponding descriptor untouched.
// stdin is opened read-only; stdout/stderr are opened write-only,
// created and truncated.
func Redirect(stdinPath, stdoutPath, stderrPath string) error {
	if stdinPath != "" {
		f, err := os.OpenFile(stdinPath, os.O_RDONLY, 0)
		if err != nil {
			return &StdioError{Path: stdinPath, Kind: classify(err), Err: err}
		}
		defer f.Close()
		if err := unix.Dup2(int(f.Fd()), 0); err != nil {
			return &StdioError{Path: stdinPath, Kind: StdioOther, Err: err}
		}
	}
	if stdoutPath != "" {
		if err := redirectOut(stdoutPath, 1); err != nil {
			return err
		}
	}
	if stderrPath != "" {
		if err := redirectOut(stderrPath, 2); err != nil {
			return err
		}
	}
	return nil
}

func redirectOut(path string, fd int) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &StdioError{Path: path, Kind: classify(err), Err: err}
	}
	defer f.Close()
	if err := unix.Dup2(int(f.Fd()), fd); err != nil {
		return &StdioError{Path: path, Kind: StdioOther, Err: err}
	}
	return nil
}
