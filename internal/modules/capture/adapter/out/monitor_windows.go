//go:build windows

package out

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	captureout "meetcap/internal/modules/capture/port/out"
)

// Callbacks are a limited resource on Windows, so the enumeration callback
// is created once and collects into enumTitles under enumMu.
var (
	enumMu       sync.Mutex
	enumTitles   []string
	enumCallback = windows.NewCallback(collectWindowTitle)
)

func collectWindowTitle(hwnd windows.HWND, _ uintptr) uintptr {
	if !windows.IsWindowVisible(hwnd) {
		return 1
	}
	buf := make([]uint16, 512)
	n, err := windows.GetWindowText(hwnd, &buf[0], int32(len(buf)))
	if err != nil || n == 0 {
		return 1
	}
	enumTitles = append(enumTitles, windows.UTF16ToString(buf[:n]))
	return 1
}

type WindowsMonitor struct {
	processName string
	run         commandRunner
}

func NewSystemMonitor(processName string) captureout.Monitor {
	return &WindowsMonitor{processName: processName, run: execRunner}
}

func (m *WindowsMonitor) ListVisibleWindowTitles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	enumMu.Lock()
	defer enumMu.Unlock()
	enumTitles = nil
	if err := windows.EnumWindows(enumCallback, unsafe.Pointer(nil)); err != nil {
		return nil, fmt.Errorf("enumerate windows: %w", err)
	}
	titles := enumTitles
	enumTitles = nil
	return titles, nil
}

func (m *WindowsMonitor) IsClientProcessRunning(ctx context.Context) (bool, error) {
	out, err := m.run(ctx, "tasklist", "/FI", "IMAGENAME eq "+m.processName, "/NH")
	if err != nil {
		return false, err
	}
	return parseTasklist(out, m.processName), nil
}
