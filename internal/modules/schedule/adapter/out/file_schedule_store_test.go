package out_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	scheduleout "meetcap/internal/modules/schedule/adapter/out"
	"meetcap/internal/modules/schedule/domain"
)

func TestFileScheduleStoreLoadAcceptsAlias(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "zoom_schedules.json")
	raw := `[
  {"id": "s1", "zoomUrl": "https://zoom.us/j/1", "scheduleTime": "2026-03-02T10:00:00", "metadata": {"faculty": "Physics"}},
  {"id": "s2", "joinUrl": "https://zoom.us/j/2", "scheduleTime": "2026-03-02T11:00:00"}
]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("seed schedules: %v", err)
	}
	entries, err := scheduleout.NewFileScheduleStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 2 || entries[0].JoinURL != "https://zoom.us/j/1" || entries[1].JoinURL != "https://zoom.us/j/2" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if entries[0].Metadata["faculty"] != "Physics" {
		t.Fatalf("metadata lost: %+v", entries[0].Metadata)
	}
}

func TestFileScheduleStoreMissingFileIsEmpty(t *testing.T) {
	t.Parallel()
	entries, err := scheduleout.NewFileScheduleStore(filepath.Join(t.TempDir(), "none.json")).Load(context.Background())
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty schedules, got %+v %v", entries, err)
	}
}

func TestFileScheduleStoreSaveKeepsUnknownFields(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "zoom_schedules.json")
	raw := `[{"id": "s1", "zoomUrl": "https://zoom.us/j/1", "scheduleTime": "2026-03-02T10:00:00", "title": "Optics"}]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("seed schedules: %v", err)
	}
	store := scheduleout.NewFileScheduleStore(path)
	entries, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	entries = append(entries, domain.Entry{ID: "s2", JoinURL: "https://zoom.us/j/2", ScheduleTime: "2026-03-02T12:00:00"})
	if err := store.Save(context.Background(), entries); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, _ := os.ReadFile(path)
	var saved []map[string]any
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("decode saved: %v", err)
	}
	if len(saved) != 2 || saved[0]["title"] != "Optics" {
		t.Fatalf("unknown fields must survive, got %v", saved)
	}
	if saved[1]["zoomUrl"] != "https://zoom.us/j/2" {
		t.Fatalf("new entries use zoomUrl, got %v", saved[1])
	}
}

func TestFileScheduleStoreRejectsMalformedFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "zoom_schedules.json")
	if err := os.WriteFile(path, []byte(`{"id": "s1"}`), 0o644); err != nil {
		t.Fatalf("seed schedules: %v", err)
	}
	if _, err := scheduleout.NewFileScheduleStore(path).Load(context.Background()); err == nil {
		t.Fatalf("expected decode error for a non-array file")
	}
}
