//go:build !unix && !windows

package netutil

import "errors"

var (
	ErrConnectionReset = errors.New("connection reset by peer")
	ErrBrokenPipe      = errors.New("broken pipe")
)

var lostErrors = []error{
	ErrConnectionReset,
	ErrBrokenPipe,
}
