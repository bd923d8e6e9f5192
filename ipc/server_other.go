//go:build !windows

package ipc

import (
	"errors"

	"github.com/xyproto/procmem"
)

// ErrUnsupported is returned by Serve on any non-Windows build, matching
// the library's documented platform Non-goal.
var ErrUnsupported = errors.New("ipc: named-pipe server is only available on windows")

func DefaultPipeName() string { return "" }

func Serve(pipeName string, sess *procmem.Session, stop <-chan struct{}) error {
	return ErrUnsupported
}
