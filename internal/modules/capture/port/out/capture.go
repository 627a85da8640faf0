package out

import (
	"context"

	"meetcap/internal/modules/capture/domain"
)

// Monitor senses the operating environment. Implementations return
// apperrors.ErrProbeUnsupported when a probe can never work on this host;
// every other error is treated as transient.
type Monitor interface {
	ListVisibleWindowTitles(ctx context.Context) ([]string, error)
	IsClientProcessRunning(ctx context.Context) (bool, error)
}

// Launcher opens the meeting client on a join link. Fire and forget.
type Launcher interface {
	Launch(ctx context.Context, joinURL string) error
}

// RecordingControl opens handshaken connections to the recording service.
type RecordingControl interface {
	Dial(ctx context.Context) (ControlConn, error)
}

// ControlConn is one identified connection. Errors wrap
// apperrors.ErrControlUnavailable.
type ControlConn interface {
	StartRecording(ctx context.Context, seed string) (domain.ControlResponse, error)
	StopRecording(ctx context.Context, seed string) (domain.ControlResponse, error)
	Close() error
}

type FileInspector interface {
	// Size returns the current size of path; an error wrapping
	// fs.ErrNotExist when it does not exist yet.
	Size(ctx context.Context, path string) (int64, error)
}

type TaskQueue interface {
	Append(ctx context.Context, task domain.AudioTask) error
	List(ctx context.Context) ([]domain.AudioTask, error)
}

type RunHistory interface {
	Record(ctx context.Context, outcome domain.Outcome) error
	List(ctx context.Context, limit int) ([]domain.Outcome, error)
}
