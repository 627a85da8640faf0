package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"meetcap/internal/modules/capture/domain"
	captureout "meetcap/internal/modules/capture/port/out"
	"meetcap/internal/platform/tx"
)

// queueLocks serialises read-modify-write cycles per queue file across every
// FileTaskQueue of the process.
var queueLocks sync.Map

type FileTaskQueue struct {
	path   string
	logger *zap.Logger
}

func NewFileTaskQueue(path string, logger *zap.Logger) captureout.TaskQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileTaskQueue{path: path, logger: logger}
}

type taskRecord struct {
	ID                 string         `json:"id"`
	URL                string         `json:"url"`
	FileNameWithoutExt string         `json:"fileNameWithoutExt"`
	Extension          string         `json:"extension"`
	DestFolder         string         `json:"destFolder"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

func (q *FileTaskQueue) Append(_ context.Context, task domain.AudioTask) error {
	mu := q.lock()
	mu.Lock()
	defer mu.Unlock()

	entries := q.readRaw()
	encoded, err := json.Marshal(taskRecord{
		ID:                 task.ID,
		URL:                task.SourcePath,
		FileNameWithoutExt: task.BaseName,
		Extension:          task.Extension,
		DestFolder:         task.DestFolder,
		Metadata:           task.Metadata,
	})
	if err != nil {
		return fmt.Errorf("encode audio task: %w", err)
	}
	entries = append(entries, encoded)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode task queue: %w", err)
	}
	return tx.WriteFile(q.path, data, 0o644)
}

func (q *FileTaskQueue) List(_ context.Context) ([]domain.AudioTask, error) {
	mu := q.lock()
	mu.Lock()
	defer mu.Unlock()

	entries := q.readRaw()
	tasks := make([]domain.AudioTask, 0, len(entries))
	for _, raw := range entries {
		var rec taskRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		tasks = append(tasks, domain.AudioTask{
			ID:         rec.ID,
			SourcePath: rec.URL,
			BaseName:   rec.FileNameWithoutExt,
			Extension:  rec.Extension,
			DestFolder: rec.DestFolder,
			Metadata:   rec.Metadata,
		})
	}
	return tasks, nil
}

func (q *FileTaskQueue) lock() *sync.Mutex {
	abs, err := filepath.Abs(q.path)
	if err != nil {
		abs = q.path
	}
	mu, _ := queueLocks.LoadOrStore(abs, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// readRaw keeps entries it does not understand so rewrites never lose
// records written by other producers. A missing or corrupt file reads as an
// empty queue.
func (q *FileTaskQueue) readRaw() []json.RawMessage {
	data, err := os.ReadFile(q.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			q.logger.Warn("read task queue, treating as empty", zap.String("path", q.path), zap.Error(err))
		}
		return nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		q.logger.Warn("task queue is not a JSON array, treating as empty", zap.String("path", q.path), zap.Error(err))
		return nil
	}
	return entries
}
