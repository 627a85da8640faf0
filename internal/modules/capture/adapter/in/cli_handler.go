package in

import (
	"context"

	capturedto "meetcap/internal/modules/capture/dto"
	capturein "meetcap/internal/modules/capture/port/in"
)

type CLIHandler struct {
	usecase capturein.Usecase
}

func NewCLIHandler(usecase capturein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// RunURL executes an ad-hoc session for joinURL under a generated id.
func (h CLIHandler) RunURL(ctx context.Context, joinURL string, observer func(capturedto.TransitionOutput)) (capturedto.OutcomeOutput, error) {
	return h.usecase.ExecuteSession(ctx, capturedto.SessionInput{JoinURL: joinURL, Observer: observer})
}

func (h CLIHandler) ListTasks(ctx context.Context) ([]capturedto.TaskOutput, error) {
	return h.usecase.ListTasks(ctx)
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]capturedto.OutcomeOutput, error) {
	return h.usecase.History(ctx, limit)
}

func (h CLIHandler) Doctor(ctx context.Context) []capturedto.CheckOutput {
	return h.usecase.Diagnose(ctx)
}
