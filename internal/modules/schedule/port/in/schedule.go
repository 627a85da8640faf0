package in

import (
	"context"

	capturedto "meetcap/internal/modules/capture/dto"
	scheduledto "meetcap/internal/modules/schedule/dto"
)

type Usecase interface {
	// Pending hydrates the schedules file and returns the retained sessions.
	Pending(ctx context.Context) ([]scheduledto.ScheduledOutput, error)
	// RunScheduled hydrates, then executes every retained session at its
	// time. It returns once every job finished or ctx is cancelled.
	RunScheduled(ctx context.Context, observer func(capturedto.TransitionOutput)) (scheduledto.RunOutput, error)
	// RunByID executes the stored session with id immediately.
	RunByID(ctx context.Context, id string, observer func(capturedto.TransitionOutput)) (capturedto.OutcomeOutput, error)
}
