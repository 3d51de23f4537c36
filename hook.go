//go:build windows
// +build windows

package main

import (
	"fmt"
	"syscall"
	"unsafe"
)

const (
	whKeyboardLL = 13

	wmKeyDown    = 0x0100
	wmSysKeyDown = 0x0104

	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
)

var (
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
)

type kbdllHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

// hookCtx is the single context the stateless hook shim forwards into.
// Written once before the hook is installed, read only from the hook thread.
var (
	hookCtx    *EngineContext
	hookHandle uintptr
)

// installKeyboardHook registers the low-level keyboard observer. The callback
// runs synchronously on this thread, which must keep pumping messages.
func installKeyboardHook(ctx *EngineContext) error {
	hookCtx = ctx
	h, _, err := procSetWindowsHookExW.Call(whKeyboardLL, syscall.NewCallback(lowLevelKeyboardProc), 0, 0)
	if h == 0 {
		return fmt.Errorf("SetWindowsHookEx failed: %v", err)
	}
	hookHandle = h
	if logger != nil {
		logger.Printf("[HOOK] low-level keyboard hook installed (handle=0x%X)", h)
	}
	return nil
}

func removeKeyboardHook() {
	if hookHandle != 0 {
		procUnhookWindowsHookEx.Call(hookHandle)
		hookHandle = 0
	}
}

func modifierDown(vk int) bool {
	ret, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return ret&0x8000 != 0
}

// lowLevelKeyboardProc observes every keyboard event system-wide. Modifier
// state is sampled live at the instant of the event rather than taken from
// the event itself. Every event is forwarded to the next hook in the chain,
// matched or not, and internal failures are swallowed: breaking the chain
// breaks keyboard input for every other application.
func lowLevelKeyboardProc(code, wParam, lParam uintptr) uintptr {
	if int32(code) >= 0 && (wParam == wmKeyDown || wParam == wmSysKeyDown) {
		func() {
			defer safeDefer("lowLevelKeyboardProc")
			kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))
			key, ok := decodeKey(kb.VkCode)
			if !ok {
				return
			}
			combo := classifyModifiers(
				modifierDown(vkControl),
				modifierDown(vkShift),
				modifierDown(vkMenu),
			)
			if combo == comboNone {
				return
			}
			if hookCtx != nil {
				hookCtx.handleHotkey(combo, key)
			}
		}()
	}
	ret, _, _ := procCallNextHookEx.Call(0, code, wParam, lParam)
	return ret
}
