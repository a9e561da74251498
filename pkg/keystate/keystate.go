// Package keystate exposes the platform's virtual key state to the rule resolver.
package keystate

import "codeberg.org/miketth/komoboard/pkg/rules"

// New returns the key probe of the current platform, or nil when the
// platform has no way to query virtual key state.
func New() rules.KeyProbe {
	return newPlatformProbe()
}
