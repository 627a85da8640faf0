package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"meetcap/internal/modules/schedule/domain"
	scheduleout "meetcap/internal/modules/schedule/port/out"
	"meetcap/internal/platform/clock"
)

type Scheduler struct {
	store  scheduleout.ScheduleStore
	clock  clock.Clock
	logger *zap.Logger
}

func NewScheduler(store scheduleout.ScheduleStore, clk clock.Clock, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{store: store, clock: clk, logger: logger}
}

// Hydrate loads the schedules file, drops every entry that cannot run in
// the future and writes the retained list back immediately.
func (s *Scheduler) Hydrate(ctx context.Context) ([]domain.ScheduledSession, int, error) {
	entries, err := s.store.Load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load schedules: %w", err)
	}
	kept, dropped := domain.Retain(entries, s.clock.Now())
	for _, d := range dropped {
		s.logger.Warn("dropping scheduled session",
			zap.String("session_id", d.Entry.ID),
			zap.String("schedule_time", d.Entry.ScheduleTime),
			zap.String("reason", string(d.Reason)))
	}
	if len(dropped) > 0 {
		retained := make([]domain.Entry, 0, len(kept))
		for _, k := range kept {
			retained = append(retained, k.Entry)
		}
		if err := s.store.Save(ctx, retained); err != nil {
			return nil, 0, fmt.Errorf("save schedules: %w", err)
		}
	}
	return kept, len(dropped), nil
}

// Find looks id up without hydrating; stale entries can still be run by id.
func (s *Scheduler) Find(ctx context.Context, id string) (domain.Entry, bool, error) {
	entries, err := s.store.Load(ctx)
	if err != nil {
		return domain.Entry{}, false, fmt.Errorf("load schedules: %w", err)
	}
	entry, ok := domain.Find(entries, id)
	return entry, ok, nil
}

// Run waits for each session's time on its own goroutine and calls execute.
// Sessions whose wait is cancelled are skipped. Run returns when every job
// has finished.
func (s *Scheduler) Run(ctx context.Context, sessions []domain.ScheduledSession, execute func(context.Context, domain.ScheduledSession)) {
	var wg sync.WaitGroup
	for _, session := range sessions {
		session := session
		wg.Add(1)
		go func() {
			defer wg.Done()
			wait := session.At.Sub(s.clock.Now())
			s.logger.Info("session scheduled",
				zap.String("session_id", session.ID),
				zap.Time("at", session.At),
				zap.Duration("in", wait))
			if !clock.Sleep(s.clock, ctx.Done(), wait) {
				s.logger.Info("scheduled session cancelled before start", zap.String("session_id", session.ID))
				return
			}
			execute(ctx, session)
		}()
	}
	wg.Wait()
}
