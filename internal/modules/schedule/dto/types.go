package dto

import (
	"time"

	capturedto "meetcap/internal/modules/capture/dto"
)

type ScheduledOutput struct {
	ID           string
	JoinURL      string
	ScheduleTime time.Time
}

// JobResult is the outcome of one scheduled session, or the error that
// kept it from executing.
type JobResult struct {
	SessionID string
	Outcome   capturedto.OutcomeOutput
	Err       error
}

type RunOutput struct {
	Scheduled int
	Dropped   int
	Results   []JobResult
}
