//go:build !linux && !darwin && !windows

package out

import (
	"context"

	captureout "meetcap/internal/modules/capture/port/out"
	apperrors "meetcap/internal/platform/errors"
)

// UnsupportedMonitor is used on hosts without a window or process probe.
type UnsupportedMonitor struct{}

func NewSystemMonitor(string) captureout.Monitor {
	return UnsupportedMonitor{}
}

func (UnsupportedMonitor) ListVisibleWindowTitles(context.Context) ([]string, error) {
	return nil, apperrors.ErrProbeUnsupported
}

func (UnsupportedMonitor) IsClientProcessRunning(context.Context) (bool, error) {
	return false, apperrors.ErrProbeUnsupported
}
