package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"meetcap/internal/modules/schedule/domain"
	scheduleout "meetcap/internal/modules/schedule/port/out"
	"meetcap/internal/platform/tx"
)

type FileScheduleStore struct {
	path string
}

func NewFileScheduleStore(path string) scheduleout.ScheduleStore {
	return &FileScheduleStore{path: path}
}

type scheduleRecord struct {
	ID           string         `json:"id"`
	ZoomURL      string         `json:"zoomUrl,omitempty"`
	JoinURL      string         `json:"joinUrl,omitempty"`
	ScheduleTime string         `json:"scheduleTime"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func (s *FileScheduleStore) Load(_ context.Context) ([]domain.Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read schedules: %w", err)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode schedules %s: %w", s.path, err)
	}
	entries := make([]domain.Entry, 0, len(raws))
	for idx, raw := range raws {
		var rec scheduleRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode schedule #%d: %w", idx, err)
		}
		joinURL := rec.ZoomURL
		if joinURL == "" {
			joinURL = rec.JoinURL
		}
		entries = append(entries, domain.Entry{
			ID:           rec.ID,
			JoinURL:      joinURL,
			ScheduleTime: rec.ScheduleTime,
			Metadata:     rec.Metadata,
			Raw:          raw,
		})
	}
	return entries, nil
}

func (s *FileScheduleStore) Save(_ context.Context, entries []domain.Entry) error {
	raws := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		if len(e.Raw) > 0 {
			raws = append(raws, e.Raw)
			continue
		}
		encoded, err := json.Marshal(scheduleRecord{
			ID:           e.ID,
			ZoomURL:      e.JoinURL,
			ScheduleTime: e.ScheduleTime,
			Metadata:     e.Metadata,
		})
		if err != nil {
			return fmt.Errorf("encode schedule %s: %w", e.ID, err)
		}
		raws = append(raws, encoded)
	}
	data, err := json.MarshalIndent(raws, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schedules: %w", err)
	}
	if err := tx.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save schedules: %w", err)
	}
	return nil
}
