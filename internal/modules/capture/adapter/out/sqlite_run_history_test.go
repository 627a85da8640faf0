package out_test

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	captureout "meetcap/internal/modules/capture/adapter/out"
	"meetcap/internal/modules/capture/domain"
)

func TestSQLiteRunHistoryRecordAndList(t *testing.T) {
	t.Parallel()
	history, err := captureout.NewSQLiteRunHistory(filepath.Join(t.TempDir(), "data", "meetcap.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer history.Close()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	older := domain.Outcome{
		RunID:      "r1",
		SessionID:  "s1",
		State:      domain.StateQueued,
		Strategy:   domain.StrategyWindow,
		MeetingID:  "81234567890",
		OutputPath: "/rec/a.mkv",
		TaskID:     "t1",
		StartedAt:  base,
		EndedAt:    base.Add(time.Hour),
	}
	newer := domain.Outcome{
		RunID:      "r2",
		SessionID:  "s2",
		State:      domain.StateFailed,
		Reason:     domain.ReasonControlUnavailable,
		Error:      "dial: refused",
		Conditions: []domain.Condition{domain.ConditionDetectionTimeout, domain.ConditionRecordingLeakRisk},
		StartedAt:  base.Add(2 * time.Hour),
		EndedAt:    base.Add(2*time.Hour + time.Minute),
	}
	for _, o := range []domain.Outcome{older, newer} {
		if err := history.Record(context.Background(), o); err != nil {
			t.Fatalf("record %s: %v", o.RunID, err)
		}
	}

	runs, err := history.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "r2" || runs[1].RunID != "r1" {
		t.Fatalf("expected newest first, got %+v", runs)
	}
	if runs[0].Reason != domain.ReasonControlUnavailable || runs[0].Error != "dial: refused" {
		t.Fatalf("unexpected failed run %+v", runs[0])
	}
	if !reflect.DeepEqual(runs[0].Conditions, newer.Conditions) {
		t.Fatalf("conditions = %v, want %v", runs[0].Conditions, newer.Conditions)
	}
	if !runs[1].StartedAt.Equal(base) || runs[1].OutputPath != "/rec/a.mkv" || runs[1].Strategy != domain.StrategyWindow {
		t.Fatalf("unexpected queued run %+v", runs[1])
	}

	limited, err := history.List(context.Background(), 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected one run with limit 1, got %d %v", len(limited), err)
	}
}

func TestSQLiteRunHistoryConcurrentRecords(t *testing.T) {
	t.Parallel()
	history, err := captureout.NewSQLiteRunHistory(filepath.Join(t.TempDir(), "meetcap.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer history.Close()

	const sessions = 8
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	errs := make(chan error, sessions)
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- history.Record(context.Background(), domain.Outcome{
				RunID:     fmt.Sprintf("r%d", i),
				SessionID: fmt.Sprintf("s%d", i),
				State:     domain.StateQueued,
				StartedAt: base.Add(time.Duration(i) * time.Minute),
				EndedAt:   base.Add(time.Hour),
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent record: %v", err)
		}
	}

	runs, err := history.List(context.Background(), 2*sessions)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != sessions {
		t.Fatalf("expected %d runs, got %d", sessions, len(runs))
	}
}
