package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"meetcap/internal/modules/capture/domain"
	captureout "meetcap/internal/modules/capture/port/out"
	"meetcap/internal/platform/clock"
	apperrors "meetcap/internal/platform/errors"
)

type DetectorIntervals struct {
	JoinPoll    time.Duration
	ClosePoll   time.Duration
	ProcessPoll time.Duration
}

// Detector turns Monitor snapshots into blocking waits on the meeting
// window and the client process.
type Detector struct {
	monitor   captureout.Monitor
	matcher   domain.TitleMatcher
	clock     clock.Clock
	intervals DetectorIntervals
	logger    *zap.Logger
}

func NewDetector(monitor captureout.Monitor, matcher domain.TitleMatcher, clk clock.Clock, intervals DetectorIntervals, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{monitor: monitor, matcher: matcher, clock: clk, intervals: intervals, logger: logger}
}

// AwaitMeetingWindow polls until a visible title matches or timeout elapses.
// It returns false only once at least timeout has passed, and an error only
// for cancellation or an unsupported probe.
func (d *Detector) AwaitMeetingWindow(ctx context.Context, meetingID string, timeout time.Duration) (bool, error) {
	deadline := d.clock.Now().Add(timeout)
	for {
		found, err := d.windowPresent(ctx, meetingID)
		switch {
		case err == nil && found:
			return true, nil
		case errors.Is(err, apperrors.ErrProbeUnsupported):
			return false, err
		case err != nil:
			d.logger.Debug("window listing failed, retrying", zap.Error(err))
		}
		remaining := deadline.Sub(d.clock.Now())
		if remaining <= 0 {
			return false, nil
		}
		if !clock.Sleep(d.clock, ctx.Done(), min(d.intervals.JoinPoll, remaining)) {
			return false, ctx.Err()
		}
	}
}

// AwaitMeetingWindowClosed blocks, without a timeout, until no visible title
// satisfies the predicate used for join detection. A failed listing counts
// as "still open".
func (d *Detector) AwaitMeetingWindowClosed(ctx context.Context, meetingID string) error {
	for {
		found, err := d.windowPresent(ctx, meetingID)
		switch {
		case errors.Is(err, apperrors.ErrProbeUnsupported):
			return err
		case err != nil:
			d.logger.Debug("window listing failed, retrying", zap.Error(err))
		case !found:
			return nil
		}
		if !clock.Sleep(d.clock, ctx.Done(), d.intervals.ClosePoll) {
			return ctx.Err()
		}
	}
}

// AwaitProcessExit blocks, without a timeout, until the client process is
// gone. A failed probe counts as "still running".
func (d *Detector) AwaitProcessExit(ctx context.Context) error {
	for {
		running, err := d.monitor.IsClientProcessRunning(ctx)
		switch {
		case errors.Is(err, apperrors.ErrProbeUnsupported):
			return err
		case err != nil:
			d.logger.Debug("process probe failed, retrying", zap.Error(err))
		case !running:
			return nil
		}
		if !clock.Sleep(d.clock, ctx.Done(), d.intervals.ProcessPoll) {
			return ctx.Err()
		}
	}
}

// ProcessProbeSupported reports whether the process fallback can work here.
func (d *Detector) ProcessProbeSupported(ctx context.Context) bool {
	_, err := d.monitor.IsClientProcessRunning(ctx)
	return !errors.Is(err, apperrors.ErrProbeUnsupported)
}

func (d *Detector) windowPresent(ctx context.Context, meetingID string) (bool, error) {
	titles, err := d.monitor.ListVisibleWindowTitles(ctx)
	if err != nil {
		return false, err
	}
	return d.matcher.MatchAny(meetingID, titles), nil
}
