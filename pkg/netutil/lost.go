// Package netutil holds the read and reconnect plumbing shared by the
// komorebi and kanata channels.
package netutil

import (
	"errors"
	"io"
)

// IsConnectionLost reports whether err means the peer went away and the
// connection should be re-established. Any other error is fatal to the
// owning loop.
func IsConnectionLost(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, io.EOF) {
		return true
	}

	for _, target := range lostErrors {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
