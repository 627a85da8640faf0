package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"meetcap/internal/modules/capture/domain"
	captureout "meetcap/internal/modules/capture/port/out"
	"meetcap/internal/platform/clock"
	"meetcap/internal/platform/id"
)

type OrchestratorConfig struct {
	LaunchSettle time.Duration
	JoinTimeout  time.Duration
	// StopTimeout bounds the stop request issued after the session context
	// was cancelled while recording.
	StopTimeout time.Duration
	Layout      domain.DestinationLayout
}

type OrchestratorDeps struct {
	Launcher  captureout.Launcher
	Detector  *Detector
	Control   captureout.RecordingControl
	Finalizer *Finalizer
	Queue     captureout.TaskQueue
	Slot      *RecordingSlot
	Clock     clock.Clock
	TaskIDs   id.Generator
	Logger    *zap.Logger
}

// Orchestrator sequences one session: launch, join detection, start,
// end-of-meeting wait, stop, finalization and queueing. One Orchestrator is
// shared by every session of the process; per-session state lives in run.
type Orchestrator struct {
	deps OrchestratorDeps
	cfg  OrchestratorConfig
}

func NewOrchestrator(deps OrchestratorDeps, cfg OrchestratorConfig) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Slot == nil {
		deps.Slot = NewRecordingSlot()
	}
	if deps.TaskIDs == nil {
		deps.TaskIDs = id.ShortUUID{}
	}
	return &Orchestrator{deps: deps, cfg: cfg}
}

// Execute runs session to a terminal state and returns the outcome. observe
// may be nil.
func (o *Orchestrator) Execute(ctx context.Context, runID string, session domain.Session, observe func(domain.Transition)) domain.Outcome {
	r := &run{
		o:       o,
		session: session,
		observe: observe,
		logger:  o.deps.Logger.With(zap.String("session_id", session.ID), zap.String("run_id", runID)),
		outcome: domain.Outcome{
			RunID:     runID,
			SessionID: session.ID,
			StartedAt: o.deps.Clock.Now(),
		},
	}
	r.execute(ctx)
	r.outcome.EndedAt = o.deps.Clock.Now()
	return r.outcome
}

type run struct {
	o       *Orchestrator
	session domain.Session
	observe func(domain.Transition)
	logger  *zap.Logger
	outcome domain.Outcome
}

func (r *run) execute(ctx context.Context) {
	deps := r.o.deps

	r.enter(domain.StateLaunching)
	meetingID := domain.ExtractMeetingID(r.session.JoinURL)
	r.outcome.MeetingID = meetingID
	r.logger.Info("launching meeting client", zap.String("launch_url", domain.LaunchURL(r.session.JoinURL)))
	if err := deps.Launcher.Launch(ctx, r.session.JoinURL); err != nil {
		r.note(domain.ConditionLaunchObservationFailed)
		r.logger.Warn("meeting client launch failed, continuing with detection", zap.Error(err))
	}

	r.enter(domain.StateAwaitingJoin)
	if !clock.Sleep(deps.Clock, ctx.Done(), r.o.cfg.LaunchSettle) {
		r.cancelled(ctx.Err())
		return
	}
	r.logger.Info("waiting for meeting window", zap.String("meeting_id", meetingID), zap.Duration("timeout", r.o.cfg.JoinTimeout))
	found, err := deps.Detector.AwaitMeetingWindow(ctx, meetingID, r.o.cfg.JoinTimeout)
	if ctx.Err() != nil {
		r.cancelled(ctx.Err())
		return
	}
	if found {
		r.outcome.Strategy = domain.StrategyWindow
		r.logger.Info("meeting window detected")
	} else {
		r.outcome.Strategy = domain.StrategyProcess
		r.note(domain.ConditionDetectionTimeout)
		r.logger.Warn("meeting window not detected, falling back to client process exit", zap.Error(err))
		if !deps.Detector.ProcessProbeSupported(ctx) {
			r.fail(domain.ReasonDetectionTimeoutWithNoFallback, errors.New("meeting window not detected and process probe unsupported"))
			return
		}
	}

	if err := deps.Slot.Acquire(ctx); err != nil {
		r.cancelled(err)
		return
	}
	defer deps.Slot.Release()

	conn, err := deps.Control.Dial(ctx)
	if err != nil {
		r.controlFailed(ctx, err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			r.logger.Debug("close control connection", zap.Error(err))
		}
	}()

	r.enter(domain.StateRecording)
	resp, err := conn.StartRecording(ctx, "start_"+r.session.ID)
	if err != nil {
		r.controlFailed(ctx, err)
		return
	}
	// A rejected start leaves whatever recording may be running untouched:
	// this session neither stops it nor queues its file.
	owned := resp.Status.Result
	if !owned {
		r.note(domain.ConditionStartRejected)
		r.logger.Warn("recording service rejected start, session will not stop or queue a recording",
			zap.Int("code", resp.Status.Code), zap.String("comment", resp.Status.Comment))
	} else {
		r.logger.Info("recording started", zap.String("request_id", resp.RequestID))
	}

	r.enter(domain.StateAwaitingEnd)
	err = r.awaitEnd(ctx, meetingID)
	if !owned {
		if ctx.Err() != nil {
			r.cancelled(ctx.Err())
			return
		}
		if err != nil {
			r.logger.Error("end-of-meeting detection failed", zap.Error(err))
		}
		r.enter(domain.StateQueued)
		return
	}
	if err != nil {
		if ctx.Err() != nil {
			r.logger.Warn("session cancelled while recording, stopping recording")
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.o.cfg.StopTimeout)
			defer cancel()
			r.enter(domain.StateFinalizing)
			if _, stopErr := r.stop(stopCtx, conn); stopErr != nil {
				r.note(domain.ConditionRecordingLeakRisk)
				r.logger.Error("stop after cancellation failed, recording may still be active", zap.Error(stopErr))
			}
			r.cancelled(ctx.Err())
			return
		}
		r.logger.Error("end-of-meeting detection failed, stopping recording", zap.Error(err))
	}

	r.enter(domain.StateFinalizing)
	resp, err = r.stop(ctx, conn)
	if err != nil {
		r.note(domain.ConditionRecordingLeakRisk)
		r.logger.Error("stop failed, recording may still be active", zap.Error(err))
		r.controlFailed(ctx, err)
		return
	}
	if !resp.Status.Result {
		r.note(domain.ConditionStopRejected)
		r.logger.Warn("recording service rejected stop", zap.Int("code", resp.Status.Code), zap.String("comment", resp.Status.Comment))
	}
	r.finalize(ctx, resp.OutputPath())
	r.enter(domain.StateQueued)
}

func (r *run) awaitEnd(ctx context.Context, meetingID string) error {
	if r.outcome.Strategy == domain.StrategyWindow {
		r.logger.Info("waiting for meeting window to close")
		return r.o.deps.Detector.AwaitMeetingWindowClosed(ctx, meetingID)
	}
	r.logger.Info("waiting for meeting client to exit")
	return r.o.deps.Detector.AwaitProcessExit(ctx)
}

// stop issues stop on the held connection and, if that connection is gone,
// once more on a fresh one. A request that timed out is not repeated: the
// service may already have stopped, and a second stop would be rejected
// without the output path.
func (r *run) stop(ctx context.Context, conn captureout.ControlConn) (domain.ControlResponse, error) {
	seed := "stop_" + r.session.ID
	resp, err := conn.StopRecording(ctx, seed)
	if err == nil || ctx.Err() != nil {
		return resp, err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		r.logger.Error("stop request timed out, recording may have stopped without a known output path", zap.Error(err))
		return resp, err
	}
	r.logger.Warn("stop on held connection failed, redialing", zap.Error(err))
	fresh, dialErr := r.o.deps.Control.Dial(ctx)
	if dialErr != nil {
		return domain.ControlResponse{}, errors.Join(err, dialErr)
	}
	defer fresh.Close()
	return fresh.StopRecording(ctx, seed)
}

// finalize waits for the output file and queues it. Nothing here fails the
// session; a cancelled context only cuts the stability wait short.
func (r *run) finalize(ctx context.Context, outputPath string) {
	deps := r.o.deps
	if outputPath == "" {
		r.note(domain.ConditionMissingOutputPath)
		r.logger.Warn("stop response carried no output path, skipping task queue")
		return
	}
	r.outcome.OutputPath = outputPath
	r.logger.Info("waiting for recording file to finalize", zap.String("path", outputPath))
	stable, err := deps.Finalizer.AwaitStable(ctx, outputPath)
	if !stable {
		r.note(domain.ConditionFinalizationTimeout)
		r.logger.Warn("recording file not confirmed stable", zap.String("path", outputPath), zap.Error(err))
	}

	task := domain.NewAudioTask(outputPath, r.session.Metadata, r.o.cfg.Layout, deps.Clock.Now(), deps.TaskIDs.New())
	if err := deps.Queue.Append(context.WithoutCancel(ctx), task); err != nil {
		r.note(domain.ConditionQueuePersistenceFailed)
		r.logger.Error("failed to queue audio task", zap.String("path", outputPath), zap.Error(err))
		return
	}
	r.outcome.TaskID = task.ID
	r.logger.Info("queued audio task", zap.String("task_id", task.ID), zap.String("dest_folder", task.DestFolder))
}

func (r *run) enter(state domain.State) {
	t := domain.Transition{
		SessionID: r.session.ID,
		From:      r.outcome.State,
		To:        state,
		At:        r.o.deps.Clock.Now(),
	}
	r.outcome.State = state
	r.outcome.Transitions = append(r.outcome.Transitions, t)
	r.logger.Debug("state transition", zap.String("from", string(t.From)), zap.String("state", string(state)))
	if r.observe != nil {
		r.observe(t)
	}
}

func (r *run) note(c domain.Condition) {
	r.outcome.Conditions = append(r.outcome.Conditions, c)
}

func (r *run) fail(reason domain.Reason, err error) {
	r.outcome.Reason = reason
	if err != nil {
		r.outcome.Error = err.Error()
	}
	r.logger.Error("session failed", zap.String("reason", string(reason)), zap.Error(err))
	r.enter(domain.StateFailed)
}

func (r *run) controlFailed(ctx context.Context, err error) {
	if ctx.Err() != nil {
		r.cancelled(ctx.Err())
		return
	}
	r.fail(domain.ReasonControlUnavailable, err)
}

func (r *run) cancelled(err error) {
	r.fail(domain.ReasonCancelled, err)
}
