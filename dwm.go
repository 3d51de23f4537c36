//go:build windows
// +build windows

package main

import (
	"fmt"
	"math"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

// The SDR-to-HDR boost entry points in dwmapi.dll are exported by ordinal
// only. The setter has been stable at 171 across recent builds but is
// undocumented, so both are resolved at runtime instead of link time.
const (
	dwmSetBoostOrdinal = 171
	dwmGetBoostOrdinal = 170
)

// dwmBoost bridges to the compositor's brightness-boost control for the
// primary display. Produced by initDWMBoost; injectable behind
// brightnessPort so the engine is testable without the real compositor.
type dwmBoost struct {
	monitor  win.HMONITOR
	setBoost uintptr
	getBoost uintptr
}

// initDWMBoost resolves the primary monitor handle and both boost entry
// points. Any failure here is fatal to startup: without the setter the app
// has nothing to do.
func initDWMBoost() (*dwmBoost, error) {
	monitor := win.MonitorFromWindow(win.GetDesktopWindow(), win.MONITOR_DEFAULTTOPRIMARY)
	if monitor == 0 {
		return nil, fmt.Errorf("no primary monitor handle")
	}

	mod, err := windows.LoadLibrary("dwmapi.dll")
	if err != nil {
		return nil, fmt.Errorf("load dwmapi.dll: %w", err)
	}

	setAddr, err := windows.GetProcAddressByOrdinal(mod, dwmSetBoostOrdinal)
	if err != nil {
		return nil, fmt.Errorf("resolve dwmapi ordinal %d: %w", dwmSetBoostOrdinal, err)
	}
	getAddr, err := windows.GetProcAddressByOrdinal(mod, dwmGetBoostOrdinal)
	if err != nil {
		return nil, fmt.Errorf("resolve dwmapi ordinal %d: %w", dwmGetBoostOrdinal, err)
	}

	if logger != nil {
		logger.Printf("[DWM] boost entry points resolved (set=0x%X get=0x%X monitor=0x%X)",
			setAddr, getAddr, uintptr(monitor))
	}
	return &dwmBoost{monitor: monitor, setBoost: setAddr, getBoost: getAddr}, nil
}

// getCurrent queries the live boost value for the primary display. A failed
// query returns last instead of an error; transient failures must not stall
// a hotkey press.
func (d *dwmBoost) getCurrent(last float64) float64 {
	var value float64
	status, _, _ := syscall.SyscallN(d.getBoost,
		uintptr(d.monitor), uintptr(unsafe.Pointer(&value)))
	if status != 0 {
		if logger != nil {
			logger.Printf("[DWM] get boost failed (status=0x%X), keeping %.2f", status, last)
		}
		return last
	}
	if value < minBrightness || value > maxBrightness {
		return last
	}
	return value
}

// apply invokes the setter with a value already clamped to
// [minBrightness, maxBrightness]. The setter takes the boost as a double;
// the display changes immediately and repeated calls with the same value
// are harmless.
func (d *dwmBoost) apply(value float64) error {
	ret, _, _ := syscall.SyscallN(d.setBoost,
		uintptr(d.monitor), uintptr(math.Float64bits(value)))
	if ret != 0 {
		return fmt.Errorf("set boost returned 0x%X", ret)
	}
	return nil
}
