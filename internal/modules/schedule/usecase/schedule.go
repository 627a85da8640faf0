package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	capturedto "meetcap/internal/modules/capture/dto"
	capturein "meetcap/internal/modules/capture/port/in"
	"meetcap/internal/modules/schedule/domain"
	scheduledto "meetcap/internal/modules/schedule/dto"
	schedulein "meetcap/internal/modules/schedule/port/in"
	"meetcap/internal/modules/schedule/service"
	apperrors "meetcap/internal/platform/errors"
)

type Interactor struct {
	scheduler *service.Scheduler
	capture   capturein.Usecase
}

func NewInteractor(scheduler *service.Scheduler, capture capturein.Usecase) schedulein.Usecase {
	return &Interactor{scheduler: scheduler, capture: capture}
}

func (i *Interactor) Pending(ctx context.Context) ([]scheduledto.ScheduledOutput, error) {
	sessions, _, err := i.scheduler.Hydrate(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]scheduledto.ScheduledOutput, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, scheduledto.ScheduledOutput{ID: s.ID, JoinURL: s.JoinURL, ScheduleTime: s.At})
	}
	return out, nil
}

func (i *Interactor) RunScheduled(ctx context.Context, observer func(capturedto.TransitionOutput)) (scheduledto.RunOutput, error) {
	sessions, dropped, err := i.scheduler.Hydrate(ctx)
	if err != nil {
		return scheduledto.RunOutput{}, err
	}
	out := scheduledto.RunOutput{Scheduled: len(sessions), Dropped: dropped}

	var mu sync.Mutex
	i.scheduler.Run(ctx, sessions, func(ctx context.Context, s domain.ScheduledSession) {
		at := s.At
		outcome, err := i.capture.ExecuteSession(ctx, capturedto.SessionInput{
			ID:           s.ID,
			JoinURL:      s.JoinURL,
			ScheduleTime: &at,
			Metadata:     s.Metadata,
			Observer:     observer,
		})
		mu.Lock()
		out.Results = append(out.Results, scheduledto.JobResult{SessionID: s.ID, Outcome: outcome, Err: err})
		mu.Unlock()
	})
	return out, nil
}

func (i *Interactor) RunByID(ctx context.Context, id string, observer func(capturedto.TransitionOutput)) (capturedto.OutcomeOutput, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return capturedto.OutcomeOutput{}, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	entry, ok, err := i.scheduler.Find(ctx, id)
	if err != nil {
		return capturedto.OutcomeOutput{}, err
	}
	if !ok {
		return capturedto.OutcomeOutput{}, fmt.Errorf("%w: scheduled session %s", apperrors.ErrNotFound, id)
	}
	input := capturedto.SessionInput{
		ID:       entry.ID,
		JoinURL:  entry.JoinURL,
		Metadata: entry.Metadata,
		Observer: observer,
	}
	if at, err := domain.ParseScheduleTime(entry.ScheduleTime); err == nil {
		input.ScheduleTime = &at
	}
	return i.capture.ExecuteSession(ctx, input)
}
