//go:build windows
// +build windows

package main

import (
	"fmt"
	"os"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"
)

const (
	WM_APP          = 0x8000
	WM_APP_TRAY_MSG = WM_APP + 10
	WM_APP_TRAY_DO  = WM_APP + 1

	ID_INCREASE = 1001
	ID_DECREASE = 1002
	ID_CUSTOM   = 1003
	ID_SETTINGS = 1004
	ID_QUIT     = 1005

	WM_LBUTTONUP   = 0x0202
	WM_RBUTTONUP   = 0x0205
	WM_CONTEXTMENU = 0x007B
)

var (
	hwnd           win.HWND
	nid            win.NOTIFYICONDATA
	trayCtx        *EngineContext
	trayOps        = make(chan func(), 64)
	taskbarCreated = win.RegisterWindowMessage(syscall.StringToUTF16Ptr("TaskbarCreated"))
)

// trayDisplay is the engine's display observer: tooltip, SSE broadcast, and
// balloon-based failure reporting.
type trayDisplay struct{}

func (trayDisplay) brightnessChanged(value float64, pct int, exact bool) {
	text := fmt.Sprintf("SDR Brightness: %d%%", pct)
	trayInvoke(func() { updateTrayTooltip(text) })
	broadcast(map[string]interface{}{
		"brightness": value,
		"percent":    pct,
		"exact":      exact,
	})
}

func (trayDisplay) reportFailure(title, message string) {
	if logger != nil {
		logger.Printf("[TRAY] failure reported: %s: %s", title, message)
	}
	sendNotification(title, message)
}

// runTray owns the tray window and, because a low-level keyboard hook
// delivers its callbacks to the thread that installed it, the keyboard hook
// too. Signals ready once the hook is in place, then pumps messages until
// quit.
func runTray(ctx *EngineContext, ready chan<- error) {
	defer safeDefer("runTray")
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	trayCtx = ctx

	hInst := win.GetModuleHandle(nil)
	className, _ := syscall.UTF16PtrFromString("SDRBrightnessTrayClass")

	wc := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		LpfnWndProc:   syscall.NewCallback(wndProc),
		HInstance:     hInst,
		LpszClassName: className,
	}
	win.RegisterClassEx(&wc)

	windowName, _ := syscall.UTF16PtrFromString("SDR Brightness")
	hwnd = win.CreateWindowEx(0, className, windowName, 0, 0, 0, 0, 0, 0, 0, hInst, nil)
	if hwnd == 0 {
		ready <- fmt.Errorf("tray window creation failed")
		return
	}

	nid = win.NOTIFYICONDATA{}
	nid.CbSize = uint32(unsafe.Sizeof(nid))
	nid.HWnd = hwnd
	nid.UID = 1
	nid.UFlags = win.NIF_ICON | win.NIF_MESSAGE | win.NIF_TIP
	nid.UCallbackMessage = WM_APP_TRAY_MSG
	nid.HIcon = win.LoadIcon(0, win.MAKEINTRESOURCE(32512)) // IDI_APPLICATION
	tip, _ := syscall.UTF16FromString("SDR Brightness")
	copy(nid.SzTip[:], tip)

	win.Shell_NotifyIcon(win.NIM_ADD, &nid)
	nid.UVersion = win.NOTIFYICON_VERSION_4
	win.Shell_NotifyIcon(win.NIM_SETVERSION, &nid)

	if err := installKeyboardHook(ctx); err != nil {
		win.Shell_NotifyIcon(win.NIM_DELETE, &nid)
		ready <- err
		return
	}
	ready <- nil

	var msg win.MSG
	for win.GetMessage(&msg, 0, 0, 0) > 0 {
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
}

func wndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	if msg == taskbarCreated {
		win.Shell_NotifyIcon(win.NIM_ADD, &nid)
		nid.UVersion = win.NOTIFYICON_VERSION_4
		win.Shell_NotifyIcon(win.NIM_SETVERSION, &nid)
		return 0
	}

	switch msg {
	case WM_APP_TRAY_MSG:
		switch uint32(lParam) & 0xFFFF {
		case WM_RBUTTONUP, WM_CONTEXTMENU:
			showMenu()
		case WM_LBUTTONUP:
			showSettingsWindow()
		}
		return 0

	case WM_APP_TRAY_DO:
		for {
			select {
			case fn := <-trayOps:
				func() {
					defer safeDefer("trayOp")
					fn()
				}()
			default:
				return 0
			}
		}
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func showMenu() {
	hMenu := win.CreatePopupMenu()
	if hMenu == 0 {
		return
	}

	var pct int
	if trayCtx != nil {
		s, value, exact := trayCtx.snapshot()
		pct = summaryPercent(value, s.StepSize, exact)
	}
	header, _ := syscall.UTF16PtrFromString(fmt.Sprintf("SDR Brightness: %d%%", pct))
	appendMenuW.Call(uintptr(hMenu), uintptr(win.MF_STRING|win.MF_GRAYED), 0, uintptr(unsafe.Pointer(header)))
	appendMenuW.Call(uintptr(hMenu), uintptr(win.MF_SEPARATOR), 0, 0)

	increaseItem, _ := syscall.UTF16PtrFromString("Increase brightness")
	appendMenuW.Call(uintptr(hMenu), uintptr(win.MF_STRING), ID_INCREASE, uintptr(unsafe.Pointer(increaseItem)))
	decreaseItem, _ := syscall.UTF16PtrFromString("Decrease brightness")
	appendMenuW.Call(uintptr(hMenu), uintptr(win.MF_STRING), ID_DECREASE, uintptr(unsafe.Pointer(decreaseItem)))
	customItem, _ := syscall.UTF16PtrFromString("Apply custom brightness")
	appendMenuW.Call(uintptr(hMenu), uintptr(win.MF_STRING), ID_CUSTOM, uintptr(unsafe.Pointer(customItem)))

	appendMenuW.Call(uintptr(hMenu), uintptr(win.MF_SEPARATOR), 0, 0)
	settingsItem, _ := syscall.UTF16PtrFromString("Settings")
	appendMenuW.Call(uintptr(hMenu), uintptr(win.MF_STRING), ID_SETTINGS, uintptr(unsafe.Pointer(settingsItem)))
	quitItem, _ := syscall.UTF16PtrFromString("Quit")
	appendMenuW.Call(uintptr(hMenu), uintptr(win.MF_STRING), ID_QUIT, uintptr(unsafe.Pointer(quitItem)))

	var pt win.POINT
	win.GetCursorPos(&pt)
	win.SetForegroundWindow(hwnd)

	trackPopupMenu := user32.NewProc("TrackPopupMenu")
	cmd, _, _ := trackPopupMenu.Call(
		uintptr(hMenu),
		uintptr(win.TPM_RETURNCMD|win.TPM_RIGHTBUTTON),
		uintptr(pt.X),
		uintptr(pt.Y),
		0,
		uintptr(hwnd),
		0,
	)
	win.DestroyMenu(hMenu)

	switch cmd {
	case ID_INCREASE:
		trayCtx.increase()
	case ID_DECREASE:
		trayCtx.decrease()
	case ID_CUSTOM:
		trayCtx.applyCustom()
	case ID_SETTINGS:
		showSettingsWindow()
	case ID_QUIT:
		quit()
	}
}

func quit() {
	removeKeyboardHook()
	win.Shell_NotifyIcon(win.NIM_DELETE, &nid)
	if logger != nil {
		logger.Printf("[TRAY] quitting")
	}
	os.Exit(0)
}

// trayInvoke runs fn on the tray thread. Tooltip and balloon updates go
// through here because Shell_NotifyIcon is owned by the thread that added
// the icon.
func trayInvoke(fn func()) {
	select {
	case trayOps <- fn:
	default:
		go func() { trayOps <- fn }()
	}
	if hwnd != 0 {
		postMessage := user32.NewProc("PostMessageW")
		postMessage.Call(uintptr(hwnd), WM_APP_TRAY_DO, 0, 0)
	}
}

func updateTrayTooltip(text string) {
	tip, _ := syscall.UTF16FromString(text)

	for i := range nid.SzTip {
		nid.SzTip[i] = 0
	}
	n := len(tip)
	if n > len(nid.SzTip) {
		n = len(nid.SzTip)
	}
	copy(nid.SzTip[:n], tip[:n])

	nid.UFlags = win.NIF_ICON | win.NIF_MESSAGE | win.NIF_TIP
	win.Shell_NotifyIcon(win.NIM_MODIFY, &nid)
}

func sendNotification(title, message string) {
	infoTitle, _ := syscall.UTF16FromString(title)
	infoText, _ := syscall.UTF16FromString(message)

	trayInvoke(func() {
		nid.UFlags = win.NIF_INFO
		nid.DwInfoFlags = win.NIIF_WARNING
		copy(nid.SzInfoTitle[:], infoTitle)
		copy(nid.SzInfo[:], infoText)
		win.Shell_NotifyIcon(win.NIM_MODIFY, &nid)

		nid.UFlags = win.NIF_ICON | win.NIF_MESSAGE | win.NIF_TIP
		win.Shell_NotifyIcon(win.NIM_MODIFY, &nid)
	})
}

// waitTrayReady blocks startup until the tray thread reports hook
// installation success or failure.
func waitTrayReady(ready <-chan error) error {
	select {
	case err := <-ready:
		return err
	case <-time.After(10 * time.Second):
		return fmt.Errorf("tray thread did not come up")
	}
}
