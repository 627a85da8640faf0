//go:build darwin

package out

import (
	"context"

	captureout "meetcap/internal/modules/capture/port/out"
)

const listWindowsScript = `tell application "System Events" to get name of every window of (every process whose visible is true)`

type DarwinMonitor struct {
	processName string
	run         commandRunner
}

func NewSystemMonitor(processName string) captureout.Monitor {
	return &DarwinMonitor{processName: processName, run: execRunner}
}

func (m *DarwinMonitor) ListVisibleWindowTitles(ctx context.Context) ([]string, error) {
	out, err := m.run(ctx, "osascript", "-e", listWindowsScript)
	if err != nil {
		return nil, err
	}
	return parseOSAScriptList(out), nil
}

func (m *DarwinMonitor) IsClientProcessRunning(ctx context.Context) (bool, error) {
	return pgrepRunning(ctx, m.run, m.processName)
}
