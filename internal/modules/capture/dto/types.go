package dto

import "time"

type SessionInput struct {
	// ID is generated when empty (ad-hoc runs).
	ID           string
	JoinURL      string
	ScheduleTime *time.Time
	Metadata     map[string]any
	// Observer, when set, receives every state transition in order.
	Observer func(TransitionOutput)
}

type TransitionOutput struct {
	SessionID string
	From      string
	To        string
	At        time.Time
}

type OutcomeOutput struct {
	RunID      string
	SessionID  string
	State      string
	Reason     string
	Error      string
	Strategy   string
	MeetingID  string
	OutputPath string
	TaskID     string
	Conditions []string
	StartedAt  time.Time
	EndedAt    time.Time
	Partial    bool
}

func (o OutcomeOutput) Failed() bool {
	return o.State == "Failed"
}

type TaskOutput struct {
	ID         string
	SourcePath string
	BaseName   string
	Extension  string
	DestFolder string
}

type CheckOutput struct {
	Name   string
	OK     bool
	Detail string
}
