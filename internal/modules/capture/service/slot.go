package service

import "context"

// RecordingSlot serialises the start..stop span of concurrent sessions that
// share one recording service, which records a single stream at a time.
type RecordingSlot struct {
	ch chan struct{}
}

func NewRecordingSlot() *RecordingSlot {
	return &RecordingSlot{ch: make(chan struct{}, 1)}
}

func (s *RecordingSlot) Acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *RecordingSlot) Release() {
	<-s.ch
}
