package service

import (
	"context"
	"time"

	captureout "meetcap/internal/modules/capture/port/out"
	"meetcap/internal/platform/clock"
)

// Finalizer waits for a written file to stop growing.
type Finalizer struct {
	files   captureout.FileInspector
	clock   clock.Clock
	poll    time.Duration
	timeout time.Duration
}

func NewFinalizer(files captureout.FileInspector, clk clock.Clock, poll, timeout time.Duration) *Finalizer {
	return &Finalizer{files: files, clock: clk, poll: poll, timeout: timeout}
}

// AwaitStable returns true once two consecutive samples report the same
// size, false when the timeout elapses first. A missing or unreadable file
// is an unknown sample and never counts as stable.
func (f *Finalizer) AwaitStable(ctx context.Context, path string) (bool, error) {
	deadline := f.clock.Now().Add(f.timeout)
	last := int64(-1)
	for {
		size, err := f.files.Size(ctx, path)
		if err != nil {
			last = -1
		} else {
			if size == last {
				return true, nil
			}
			last = size
		}
		remaining := deadline.Sub(f.clock.Now())
		if remaining <= 0 {
			return false, nil
		}
		if !clock.Sleep(f.clock, ctx.Done(), min(f.poll, remaining)) {
			return false, ctx.Err()
		}
	}
}
