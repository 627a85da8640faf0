//go:build linux

package out

import (
	"context"

	captureout "meetcap/internal/modules/capture/port/out"
)

// LinuxMonitor lists windows through wmctrl and probes the client with pgrep.
type LinuxMonitor struct {
	processName string
	run         commandRunner
}

func NewSystemMonitor(processName string) captureout.Monitor {
	return &LinuxMonitor{processName: processName, run: execRunner}
}

func (m *LinuxMonitor) ListVisibleWindowTitles(ctx context.Context) ([]string, error) {
	out, err := m.run(ctx, "wmctrl", "-l")
	if err != nil {
		return nil, err
	}
	return parseWmctrlList(out), nil
}

func (m *LinuxMonitor) IsClientProcessRunning(ctx context.Context) (bool, error) {
	return pgrepRunning(ctx, m.run, m.processName)
}
