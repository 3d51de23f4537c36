//go:build windows
// +build windows

package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/jchv/go-webview2"
	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

//go:embed ui.html
var content embed.FS

const currentVersion = "1.1.0"

var (
	user32      = syscall.NewLazyDLL("user32.dll")
	appendMenuW = user32.NewProc("AppendMenuW")
	showWindow  = user32.NewProc("ShowWindow")

	dataDir      string
	settingsFile string
	logFile      string
	serverPort   = "8642"

	w           webview2.WebView
	webviewHwnd win.HWND
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Printf("[FATAL RECOVER] %v\n%s", r, debug.Stack())
			}
		}
	}()

	if alreadyRunning() {
		return
	}

	appData := os.Getenv("APPDATA")
	if appData == "" {
		appData = "."
	}
	dataDir = filepath.Join(appData, "SDRBrightness")
	os.MkdirAll(dataDir, 0755)
	settingsFile = filepath.Join(dataDir, "settings.json")
	logFile = filepath.Join(dataDir, "debug.log")

	setupLogging()

	ctx := newEngineContext(settingsFile)
	ctx.observer = trayDisplay{}

	port, err := initDWMBoost()
	if err != nil {
		// Fatal: without the compositor entry points the hotkeys would be
		// dead weight. Do not enter the run loop.
		if logger != nil {
			logger.Printf("[STARTUP] brightness control unavailable: %v", err)
		}
		fatalBox(fmt.Sprintf("SDR brightness control is unavailable on this system:\n%v", err))
		return
	}
	ctx.port = port

	ready := make(chan error, 1)
	go runTray(ctx, ready)
	if err := waitTrayReady(ready); err != nil {
		if logger != nil {
			logger.Printf("[STARTUP] tray/hook setup failed: %v", err)
		}
		fatalBox(fmt.Sprintf("Could not install the keyboard hook:\n%v", err))
		return
	}

	ctx.applyStartupBrightness()
	if s, _, _ := ctx.snapshot(); s.StartWithWindows {
		syncStartupShortcut(true)
	}

	if p := os.Getenv("PORT"); p != "" {
		serverPort = p
	}
	go startWebServer(ctx)
	go checkForUpdates()

	if logger != nil {
		logger.Printf("[STARTUP] creating settings window")
	}
	w = webview2.NewWithOptions(webview2.WebViewOptions{
		Debug:     false,
		AutoFocus: true,
		WindowOptions: webview2.WindowOptions{
			Title:  "SDR Brightness Settings",
			Width:  460,
			Height: 640,
			IconId: 0,
		},
	})
	if w == nil {
		if logger != nil {
			logger.Printf("[STARTUP] WebView2 returned nil; continuing without settings window")
		}
		select {}
	}
	defer w.Destroy()

	webviewHwnd = win.HWND(w.Window())

	// Closing the dialog hides it; the tray owns the process lifetime.
	oldProc := win.SetWindowLongPtr(webviewHwnd, win.GWLP_WNDPROC, syscall.NewCallback(webviewWndProc))
	win.SetWindowLongPtr(webviewHwnd, win.GWLP_USERDATA, oldProc)

	w.Navigate(fmt.Sprintf("http://127.0.0.1:%s", serverPort))
	showWindow.Call(uintptr(webviewHwnd), uintptr(win.SW_HIDE))

	if logger != nil {
		logger.Printf("[STARTUP] entering run loop")
	}
	w.Run()
}

func webviewWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_CLOSE:
		showWindow.Call(uintptr(hwnd), uintptr(win.SW_HIDE))
		return 0
	case win.WM_DESTROY:
		return 0
	}
	oldProc := win.GetWindowLongPtr(hwnd, win.GWLP_USERDATA)
	return win.CallWindowProc(oldProc, hwnd, msg, wParam, lParam)
}

func showSettingsWindow() {
	if webviewHwnd == 0 {
		return
	}
	showWindow.Call(uintptr(webviewHwnd), uintptr(win.SW_SHOW))
	win.SetForegroundWindow(webviewHwnd)
}

// alreadyRunning holds a named mutex for the process lifetime; a second
// instance sees ERROR_ALREADY_EXISTS and exits.
func alreadyRunning() bool {
	name, _ := windows.UTF16PtrFromString("SDRBrightnessMutex")
	_, err := windows.CreateMutex(nil, false, name)
	return err == windows.ERROR_ALREADY_EXISTS
}

func fatalBox(message string) {
	text, _ := syscall.UTF16PtrFromString(message)
	caption, _ := syscall.UTF16PtrFromString("SDR Brightness")
	win.MessageBox(0, text, caption, win.MB_OK|win.MB_ICONERROR)
}
