package process

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	ps "github.com/shirou/gopsutil/v3/process"
)

// IsRunning reports whether a process with one of the given executable names
// is running. Names are compared case-insensitively and without extension.
func IsRunning(ctx context.Context, names ...string) (bool, error) {
	procs, err := ps.ProcessesWithContext(ctx)
	if err != nil {
		return false, err
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[normalizeName(n)] = true
	}
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if want[normalizeName(name)] {
			return true, nil
		}
	}
	return false, nil
}

// WaitForExit polls until none of the named processes are running. Returns
// false if ctx ends first.
func WaitForExit(ctx context.Context, interval time.Duration, names ...string) bool {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		running, err := IsRunning(ctx, names...)
		if err != nil || !running {
			return ctx.Err() == nil
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// AvailableMemory returns the memory available to new processes, in bytes.
func AvailableMemory(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

func normalizeName(n string) string {
	n = strings.ToLower(filepath.Base(n))
	return strings.TrimSuffix(n, filepath.Ext(n))
}
