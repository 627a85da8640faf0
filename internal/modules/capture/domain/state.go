package domain

import "time"

// State is a step of the session lifecycle.
type State string

const (
	StateLaunching    State = "Launching"
	StateAwaitingJoin State = "AwaitingJoin"
	StateRecording    State = "Recording"
	StateAwaitingEnd  State = "AwaitingEnd"
	StateFinalizing   State = "Finalizing"
	StateQueued       State = "Queued"
	StateFailed       State = "Failed"
)

func (s State) Terminal() bool {
	return s == StateQueued || s == StateFailed
}

// Reason explains a Failed outcome.
type Reason string

const (
	ReasonNone                           Reason = ""
	ReasonControlUnavailable             Reason = "ControlUnavailable"
	ReasonDetectionTimeoutWithNoFallback Reason = "DetectionTimeoutWithNoFallback"
	ReasonCancelled                      Reason = "Cancelled"
)

// Condition is a non-fatal event recorded on an outcome. Conditions never
// change the terminal state on their own.
type Condition string

const (
	ConditionLaunchObservationFailed Condition = "LaunchObservationFailed"
	ConditionDetectionTimeout        Condition = "DetectionTimeout"
	ConditionStartRejected           Condition = "StartRejected"
	ConditionStopRejected            Condition = "StopRejected"
	ConditionFinalizationTimeout     Condition = "FinalizationTimeout"
	ConditionMissingOutputPath       Condition = "MissingOutputPath"
	ConditionQueuePersistenceFailed  Condition = "QueuePersistenceFailed"
	// ConditionRecordingLeakRisk means stop failed after start succeeded, so
	// the remote service may still be recording.
	ConditionRecordingLeakRisk Condition = "RecordingLeakRisk"
)

// Strategy selects how the end of the meeting is detected.
type Strategy string

const (
	StrategyUndecided Strategy = ""
	StrategyWindow    Strategy = "window"
	StrategyProcess   Strategy = "process"
)

type Transition struct {
	SessionID string
	From      State
	To        State
	At        time.Time
}

// Outcome is the terminal report of one session execution.
type Outcome struct {
	RunID       string
	SessionID   string
	State       State
	Reason      Reason
	Error       string
	Strategy    Strategy
	MeetingID   string
	OutputPath  string
	TaskID      string
	Conditions  []Condition
	Transitions []Transition
	StartedAt   time.Time
	EndedAt     time.Time
}

func (o Outcome) Succeeded() bool {
	return o.State == StateQueued
}

func (o Outcome) Has(c Condition) bool {
	for _, got := range o.Conditions {
		if got == c {
			return true
		}
	}
	return false
}

// Partial reports a capture that ran to completion but whose file never
// reached the task queue.
func (o Outcome) Partial() bool {
	return o.Succeeded() && o.TaskID == ""
}
