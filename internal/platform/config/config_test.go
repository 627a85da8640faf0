package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"meetcap/internal/platform/config"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.OBS.URL != "ws://localhost:4455" || cfg.Detection.JoinTimeout != 60*time.Second || cfg.Finalize.Timeout != 30*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !strings.HasSuffix(cfg.Queue.WorkspaceRoot, filepath.Join("Diploma", "Workspace")) {
		t.Fatalf("unexpected workspace root %s", cfg.Queue.WorkspaceRoot)
	}
}

func TestLoadReadsYAMLFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "meetcap.yaml")
	raw := `
data_dir: /var/lib/meetcap
obs:
  url: ws://recorder:4455
  request_timeout: 5s
detection:
  join_timeout: 2m
  title_patterns:
    - "(?i)meeting"
queue:
  tasks_file: /srv/queue.json
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OBS.URL != "ws://recorder:4455" || cfg.OBS.RequestTimeout != 5*time.Second {
		t.Fatalf("unexpected obs config %+v", cfg.OBS)
	}
	if cfg.Detection.JoinTimeout != 2*time.Minute || len(cfg.Detection.TitlePatterns) != 1 {
		t.Fatalf("unexpected detection config %+v", cfg.Detection)
	}
	if cfg.Detection.ClosePoll != 2*time.Second {
		t.Fatalf("unset keys keep defaults, got close_poll=%s", cfg.Detection.ClosePoll)
	}
	if cfg.DBPath != filepath.Join("/var/lib/meetcap", "meetcap.db") {
		t.Fatalf("db path derives from data dir, got %s", cfg.DBPath)
	}
	if cfg.Queue.TasksFile != "/srv/queue.json" {
		t.Fatalf("unexpected tasks file %s", cfg.Queue.TasksFile)
	}
}

func TestLoadShorterListReplacesDefault(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "meetcap.yaml")
	raw := `
detection:
  title_patterns: ["(?i)teams meeting"]
queue:
  unit_keys: [dept]
log:
  outputs: [stdout]
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Detection.TitlePatterns; len(got) != 1 || got[0] != "(?i)teams meeting" {
		t.Fatalf("title patterns must replace defaults, got %q", got)
	}
	if got := cfg.Queue.UnitKeys; len(got) != 1 || got[0] != "dept" {
		t.Fatalf("unit keys must replace defaults, got %q", got)
	}
	if got := cfg.Log.Outputs; len(got) != 1 || got[0] != "stdout" {
		t.Fatalf("log outputs must replace defaults, got %q", got)
	}
	if got := cfg.Queue.GroupKeys; len(got) != 2 || got[0] != "classText" {
		t.Fatalf("unset lists keep defaults, got %q", got)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Parallel()
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing config")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MEETCAP_OBS_URL", "ws://env-host:1234")
	t.Setenv("MEETCAP_FINALIZE_TIMEOUT", "45s")
	path := filepath.Join(t.TempDir(), "meetcap.yaml")
	if err := os.WriteFile(path, []byte("obs:\n  url: ws://file-host:4455\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OBS.URL != "ws://env-host:1234" {
		t.Fatalf("env must win over file, got %s", cfg.OBS.URL)
	}
	if cfg.Finalize.Timeout != 45*time.Second {
		t.Fatalf("unexpected finalize timeout %s", cfg.Finalize.Timeout)
	}
}

func TestLoadLegacyOBSEnv(t *testing.T) {
	t.Setenv("MEETCAP_OBS_URL", "")
	t.Setenv("OBS_HOST", "studio")
	t.Setenv("OBS_PORT", "4456")
	path := filepath.Join(t.TempDir(), "meetcap.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OBS.URL != "ws://studio:4456" {
		t.Fatalf("expected legacy host/port, got %s", cfg.OBS.URL)
	}
}

func TestValidateRejectsNonPositiveDurations(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Detection.JoinPoll = 0
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "detection.join_poll") {
		t.Fatalf("expected join_poll error, got %v", err)
	}
}
