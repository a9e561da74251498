//go:build windows

package netutil

import "golang.org/x/sys/windows"

var (
	ErrConnectionReset error = windows.WSAECONNRESET
	ErrBrokenPipe      error = windows.ERROR_BROKEN_PIPE
)

var lostErrors = []error{
	ErrConnectionReset,
	ErrBrokenPipe,
	windows.WSAECONNABORTED,
	windows.ERROR_PIPE_NOT_CONNECTED,
}
