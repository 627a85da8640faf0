package in

import (
	"context"

	"meetcap/internal/modules/capture/dto"
)

type Usecase interface {
	// ExecuteSession runs one session to a terminal state. A Failed outcome
	// is reported in the output, not as an error; errors mean the session
	// could not be executed at all.
	ExecuteSession(ctx context.Context, input dto.SessionInput) (dto.OutcomeOutput, error)
	ListTasks(ctx context.Context) ([]dto.TaskOutput, error)
	History(ctx context.Context, limit int) ([]dto.OutcomeOutput, error)
	Diagnose(ctx context.Context) []dto.CheckOutput
}
