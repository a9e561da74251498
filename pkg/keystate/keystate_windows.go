//go:build windows

package keystate

import (
	"codeberg.org/miketth/komoboard/pkg/rules"
	"golang.org/x/sys/windows"
)

var (
	user32          = windows.NewLazySystemDLL("user32.dll")
	procGetKeyState = user32.NewProc("GetKeyState")
)

type windowsProbe struct{}

func newPlatformProbe() rules.KeyProbe {
	if err := procGetKeyState.Find(); err != nil {
		return nil
	}
	return windowsProbe{}
}

func (windowsProbe) KeyState(code int32) int16 {
	ret, _, _ := procGetKeyState.Call(uintptr(code))
	return int16(ret)
}
