package domain_test

import (
	"path/filepath"
	"testing"
	"time"

	"meetcap/internal/modules/capture/domain"
)

func TestNewAudioTaskUsesMetadataLayout(t *testing.T) {
	t.Parallel()
	layout := domain.DestinationLayout{
		WorkspaceRoot: filepath.Join("ws", "Diploma", "Workspace"),
		UnitKeys:      []string{"faculty", "unit"},
		GroupKeys:     []string{"classText", "group"},
	}
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	source := filepath.Join("rec", "2026-03-02 09-00-00.mkv")
	task := domain.NewAudioTask(source, map[string]any{"faculty": "Physics", "classText": "PH-21"}, layout, now, "a1b2c3d4")

	if task.ID != "1772442000000_a1b2c3d4" {
		t.Fatalf("unexpected id %s", task.ID)
	}
	if task.BaseName != "2026-03-02 09-00-00" || task.Extension != ".mkv" {
		t.Fatalf("unexpected name split %q %q", task.BaseName, task.Extension)
	}
	if want := filepath.Join(layout.WorkspaceRoot, "Physics", "PH-21"); task.DestFolder != want {
		t.Fatalf("dest folder = %s, want %s", task.DestFolder, want)
	}
}

func TestDestFolderFallsBackToSourceDir(t *testing.T) {
	t.Parallel()
	layout := domain.DestinationLayout{WorkspaceRoot: "ws", UnitKeys: []string{"faculty"}, GroupKeys: []string{"classText"}}
	source := filepath.Join("rec", "out.mp4")
	cases := []map[string]any{
		nil,
		{"faculty": "Physics"},
		{"faculty": "Physics", "classText": "  "},
		{"faculty": 7, "classText": "A"},
		{"faculty": "..", "classText": "A"},
	}
	for _, md := range cases {
		if got := layout.DestFolder(source, md); got != "rec" {
			t.Fatalf("metadata %v: dest folder = %s, want rec", md, got)
		}
	}
}

func TestDestFolderSanitisesSeparators(t *testing.T) {
	t.Parallel()
	layout := domain.DestinationLayout{WorkspaceRoot: "ws", UnitKeys: []string{"unit"}, GroupKeys: []string{"group"}}
	got := layout.DestFolder("x.mkv", map[string]any{"unit": "Maths/Stats", "group": `G\1`})
	if want := filepath.Join("ws", "Maths-Stats", "G-1"); got != want {
		t.Fatalf("dest folder = %s, want %s", got, want)
	}
}
