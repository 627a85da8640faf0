package in

import (
	"context"

	capturedto "meetcap/internal/modules/capture/dto"
	scheduledto "meetcap/internal/modules/schedule/dto"
	schedulein "meetcap/internal/modules/schedule/port/in"
)

type CLIHandler struct {
	usecase schedulein.Usecase
}

func NewCLIHandler(usecase schedulein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Pending(ctx context.Context) ([]scheduledto.ScheduledOutput, error) {
	return h.usecase.Pending(ctx)
}

func (h CLIHandler) Run(ctx context.Context, observer func(capturedto.TransitionOutput)) (scheduledto.RunOutput, error) {
	return h.usecase.RunScheduled(ctx, observer)
}

func (h CLIHandler) RunByID(ctx context.Context, id string, observer func(capturedto.TransitionOutput)) (capturedto.OutcomeOutput, error) {
	return h.usecase.RunByID(ctx, id, observer)
}
