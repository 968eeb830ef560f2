//go:build windows

package console

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

var (
	kernel32          = syscall.NewLazyDLL("kernel32.dll")
	user32            = syscall.NewLazyDLL("user32.dll")
	attachConsole     = kernel32.NewProc("AttachConsole")
	allocConsole      = kernel32.NewProc("AllocConsole")
	getStdHandle      = kernel32.NewProc("GetStdHandle")
	getConsoleWindow  = kernel32.NewProc("GetConsoleWindow")
	setConsoleTitle   = kernel32.NewProc("SetConsoleTitleW")
	showWindowProc    = user32.NewProc("ShowWindow")
	setForegroundProc = user32.NewProc("SetForegroundWindow")
)

const (
	attachParent    = ^uint32(0) // ATTACH_PARENT_PROCESS
	stdInputHandle  = ^uint32(0) - 10 + 1
	stdOutputHandle = ^uint32(0) - 11 + 1
	stdErrorHandle  = ^uint32(0) - 12 + 1
	swShowNormal    = 1
)

func handle(which uint32) (uintptr, bool) {
	h, _, _ := getStdHandle.Call(uintptr(which))
	return h, h != 0 && h != uintptr(syscall.InvalidHandle)
}

// Attach attaches to the parent console, or allocates a new one when the
// launcher was started from Explorer. Returns true if a console is available.
func Attach() bool {
	if _, ok := handle(stdOutputHandle); ok {
		attached = true
		return true
	}

	allocated := false
	if r, _, _ := attachConsole.Call(uintptr(attachParent)); r == 0 {
		if r, _, _ := allocConsole.Call(); r == 0 {
			return false
		}
		allocated = true
	}

	if h, ok := handle(stdOutputHandle); ok {
		os.Stdout = os.NewFile(h, "/dev/stdout")
	}
	if h, ok := handle(stdErrorHandle); ok {
		os.Stderr = os.NewFile(h, "/dev/stderr")
	}
	if h, ok := handle(stdInputHandle); ok {
		os.Stdin = os.NewFile(h, "/dev/stdin")
	}

	if allocated {
		if hwnd := Window(); hwnd != 0 {
			showWindowProc.Call(hwnd, uintptr(swShowNormal))
			setForegroundProc.Call(hwnd)
		}
	}
	attached = true
	return true
}

// SetTitle sets the console window title
func SetTitle(title string) error {
	if !attached {
		return nil
	}
	p, err := syscall.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	if r, _, err := setConsoleTitle.Call(uintptr(unsafe.Pointer(p))); r == 0 {
		return fmt.Errorf("SetConsoleTitle failed: %v", err)
	}
	return nil
}

// Window returns the console window handle (HWND), used as the owner of
// folder dialogs.
func Window() uintptr {
	hwnd, _, _ := getConsoleWindow.Call()
	return hwnd
}
