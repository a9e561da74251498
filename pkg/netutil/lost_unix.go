//go:build unix

package netutil

import "golang.org/x/sys/unix"

var (
	ErrConnectionReset error = unix.ECONNRESET
	ErrBrokenPipe      error = unix.EPIPE
)

var lostErrors = []error{
	ErrConnectionReset,
	ErrBrokenPipe,
	unix.ECONNABORTED,
}
