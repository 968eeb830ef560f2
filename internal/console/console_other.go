//go:build !windows

package console

// Attach reports whether stdout is usable. Terminals elsewhere always are.
func Attach() bool {
	attached = true
	return true
}

func SetTitle(title string) error { return nil }

func Window() uintptr { return 0 }
