//go:build windows

package desktop

import (
	"fmt"
	"runtime"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// withDispatch runs fn with an IDispatch of the named COM object on a
// locked, COM-initialised thread.
func withDispatch(progID string, fn func(*ole.IDispatch) error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		// S_FALSE: already initialised on this thread.
		if oleErr, ok := err.(*ole.OleError); !ok || oleErr.Code() != 1 {
			return fmt.Errorf("failed to initialise COM: %w", err)
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject(progID)
	if err != nil {
		return fmt.Errorf("failed to create %s object: %w", progID, err)
	}
	defer unknown.Release()

	dispatch, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("failed to get IDispatch interface: %w", err)
	}
	defer dispatch.Release()
	return fn(dispatch)
}

// CreateShortcut writes s.Path through WScript.Shell.
func CreateShortcut(s Shortcut) error {
	return withDispatch("WScript.Shell", func(shell *ole.IDispatch) error {
		v, err := oleutil.CallMethod(shell, "CreateShortcut", s.Path)
		if err != nil {
			return fmt.Errorf("failed to create shortcut: %w", err)
		}
		lnk := v.ToIDispatch()
		defer lnk.Release()

		props := map[string]string{
			"TargetPath":       s.Target,
			"Arguments":        joinArgs(s.Args),
			"WorkingDirectory": s.WorkingDir,
			"Description":      s.Description,
		}
		if s.Icon != "" {
			props["IconLocation"] = s.Icon + ",0"
		}
		for name, value := range props {
			if _, err := oleutil.PutProperty(lnk, name, value); err != nil {
				return fmt.Errorf("failed to set shortcut %s: %w", name, err)
			}
		}
		if _, err := oleutil.CallMethod(lnk, "Save"); err != nil {
			return fmt.Errorf("failed to save shortcut: %w", err)
		}
		return nil
	})
}

// SelectFolder opens the shell folder picker and returns the chosen path.
func SelectFolder(title string, owner uintptr) (string, error) {
	var selected string
	err := withDispatch("Shell.Application", func(shell *ole.IDispatch) error {
		folderObj, err := oleutil.CallMethod(shell, "BrowseForFolder", int(owner), title, 0x10)
		if err != nil {
			return fmt.Errorf("failed to show folder dialog: %w", err)
		}
		if folderObj.Value() == nil {
			return fmt.Errorf("folder selection cancelled")
		}
		folderItem := folderObj.ToIDispatch()
		if folderItem == nil {
			return fmt.Errorf("folder selection cancelled")
		}
		defer folderItem.Release()

		selfProp, err := oleutil.GetProperty(folderItem, "Self")
		if err != nil {
			return fmt.Errorf("failed to get folder item: %w", err)
		}
		selfDispatch := selfProp.ToIDispatch()
		defer selfDispatch.Release()

		pathProp, err := oleutil.GetProperty(selfDispatch, "Path")
		if err != nil {
			return fmt.Errorf("failed to get folder path: %w", err)
		}
		selected = pathProp.ToString()
		return nil
	})
	if err != nil {
		return "", err
	}
	if selected == "" {
		return "", fmt.Errorf("no folder selected")
	}
	return selected, nil
}
