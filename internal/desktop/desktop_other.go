//go:build !windows

package desktop

func CreateShortcut(s Shortcut) error {
	return ErrUnsupported
}

func SelectFolder(title string, owner uintptr) (string, error) {
	return "", ErrUnsupported
}
