//go:build !windows

package keystate

import "codeberg.org/miketth/komoboard/pkg/rules"

func newPlatformProbe() rules.KeyProbe {
	return nil
}
