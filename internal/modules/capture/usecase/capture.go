package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"meetcap/internal/modules/capture/domain"
	"meetcap/internal/modules/capture/dto"
	capturein "meetcap/internal/modules/capture/port/in"
	captureout "meetcap/internal/modules/capture/port/out"
	"meetcap/internal/modules/capture/service"
	apperrors "meetcap/internal/platform/errors"
	"meetcap/internal/platform/id"
)

type Deps struct {
	Orchestrator *service.Orchestrator
	Queue        captureout.TaskQueue
	// History is optional; outcomes are not recorded when nil.
	History captureout.RunHistory
	Control captureout.RecordingControl
	Monitor captureout.Monitor
	RunIDs  id.Generator
	Logger  *zap.Logger
}

type Interactor struct {
	deps Deps

	mu     sync.Mutex
	active map[string]struct{}
}

func NewInteractor(deps Deps) capturein.Usecase {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.RunIDs == nil {
		deps.RunIDs = id.RandomHex{Bytes: 8}
	}
	return &Interactor{deps: deps, active: map[string]struct{}{}}
}

func (i *Interactor) ExecuteSession(ctx context.Context, input dto.SessionInput) (dto.OutcomeOutput, error) {
	joinURL := strings.TrimSpace(input.JoinURL)
	if joinURL == "" {
		return dto.OutcomeOutput{}, fmt.Errorf("%w: join url is required", apperrors.ErrInvalidInput)
	}
	sessionID := strings.TrimSpace(input.ID)
	if sessionID == "" {
		sessionID = "cli-" + id.RandomHex{Bytes: 4}.New()
	}
	if err := i.claim(sessionID); err != nil {
		return dto.OutcomeOutput{}, err
	}
	defer i.release(sessionID)

	session := domain.Session{
		ID:           sessionID,
		JoinURL:      joinURL,
		ScheduleTime: input.ScheduleTime,
		Metadata:     input.Metadata,
	}
	var observe func(domain.Transition)
	if input.Observer != nil {
		observe = func(t domain.Transition) {
			input.Observer(toTransitionOutput(t))
		}
	}

	outcome := i.deps.Orchestrator.Execute(ctx, i.deps.RunIDs.New(), session, observe)
	if i.deps.History != nil {
		if err := i.deps.History.Record(context.WithoutCancel(ctx), outcome); err != nil {
			i.deps.Logger.Warn("record run history", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return toOutcomeOutput(outcome), nil
}

func (i *Interactor) ListTasks(ctx context.Context) ([]dto.TaskOutput, error) {
	tasks, err := i.deps.Queue.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TaskOutput, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, dto.TaskOutput{
			ID:         t.ID,
			SourcePath: t.SourcePath,
			BaseName:   t.BaseName,
			Extension:  t.Extension,
			DestFolder: t.DestFolder,
		})
	}
	return out, nil
}

func (i *Interactor) History(ctx context.Context, limit int) ([]dto.OutcomeOutput, error) {
	if i.deps.History == nil {
		return nil, fmt.Errorf("run history is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", apperrors.ErrInvalidInput)
	}
	outcomes, err := i.deps.History.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.OutcomeOutput, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, toOutcomeOutput(o))
	}
	return out, nil
}

// Diagnose probes every external collaborator once without side effects on
// the recording service.
func (i *Interactor) Diagnose(ctx context.Context) []dto.CheckOutput {
	checks := make([]dto.CheckOutput, 0, 4)

	conn, err := i.deps.Control.Dial(ctx)
	if err != nil {
		checks = append(checks, dto.CheckOutput{Name: "recording control", Detail: err.Error()})
	} else {
		_ = conn.Close()
		checks = append(checks, dto.CheckOutput{Name: "recording control", OK: true, Detail: "handshake ok"})
	}

	titles, err := i.deps.Monitor.ListVisibleWindowTitles(ctx)
	if err != nil {
		checks = append(checks, dto.CheckOutput{Name: "window probe", Detail: err.Error()})
	} else {
		checks = append(checks, dto.CheckOutput{Name: "window probe", OK: true, Detail: fmt.Sprintf("%d visible windows", len(titles))})
	}

	running, err := i.deps.Monitor.IsClientProcessRunning(ctx)
	switch {
	case errors.Is(err, apperrors.ErrProbeUnsupported):
		checks = append(checks, dto.CheckOutput{Name: "process probe", Detail: "unsupported on this host"})
	case err != nil:
		checks = append(checks, dto.CheckOutput{Name: "process probe", Detail: err.Error()})
	default:
		checks = append(checks, dto.CheckOutput{Name: "process probe", OK: true, Detail: fmt.Sprintf("client running: %t", running)})
	}

	tasks, err := i.deps.Queue.List(ctx)
	if err != nil {
		checks = append(checks, dto.CheckOutput{Name: "task queue", Detail: err.Error()})
	} else {
		checks = append(checks, dto.CheckOutput{Name: "task queue", OK: true, Detail: fmt.Sprintf("%d queued tasks", len(tasks))})
	}
	return checks
}

func (i *Interactor) claim(sessionID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.active[sessionID]; ok {
		return fmt.Errorf("%w: %s", apperrors.ErrActiveSessionExists, sessionID)
	}
	i.active[sessionID] = struct{}{}
	return nil
}

func (i *Interactor) release(sessionID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.active, sessionID)
}

func toTransitionOutput(t domain.Transition) dto.TransitionOutput {
	return dto.TransitionOutput{SessionID: t.SessionID, From: string(t.From), To: string(t.To), At: t.At}
}

func toOutcomeOutput(o domain.Outcome) dto.OutcomeOutput {
	conditions := make([]string, 0, len(o.Conditions))
	for _, c := range o.Conditions {
		conditions = append(conditions, string(c))
	}
	return dto.OutcomeOutput{
		RunID:      o.RunID,
		SessionID:  o.SessionID,
		State:      string(o.State),
		Reason:     string(o.Reason),
		Error:      o.Error,
		Strategy:   string(o.Strategy),
		MeetingID:  o.MeetingID,
		OutputPath: o.OutputPath,
		TaskID:     o.TaskID,
		Conditions: conditions,
		StartedAt:  o.StartedAt,
		EndedAt:    o.EndedAt,
		Partial:    o.Partial(),
	}
}
