package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// AudioTask hands one finished recording to the downstream processing queue.
type AudioTask struct {
	ID         string
	SourcePath string
	BaseName   string
	Extension  string
	DestFolder string
	Metadata   map[string]any
}

// DestinationLayout maps session metadata onto a destination folder.
type DestinationLayout struct {
	WorkspaceRoot string
	UnitKeys      []string
	GroupKeys     []string
}

// DestFolder returns WorkspaceRoot/<unit>/<group> when the metadata names
// both, otherwise the directory holding sourcePath.
func (l DestinationLayout) DestFolder(sourcePath string, metadata map[string]any) string {
	unit := pathSegment(metadata, l.UnitKeys)
	group := pathSegment(metadata, l.GroupKeys)
	if unit == "" || group == "" {
		return filepath.Dir(sourcePath)
	}
	return filepath.Join(l.WorkspaceRoot, unit, group)
}

// NewAudioTask builds the queue entry for sourcePath. The id is the creation
// time in unix milliseconds followed by suffix.
func NewAudioTask(sourcePath string, metadata map[string]any, layout DestinationLayout, now time.Time, suffix string) AudioTask {
	base := filepath.Base(sourcePath)
	ext := filepath.Ext(base)
	return AudioTask{
		ID:         fmt.Sprintf("%d_%s", now.UnixMilli(), suffix),
		SourcePath: sourcePath,
		BaseName:   strings.TrimSuffix(base, ext),
		Extension:  ext,
		DestFolder: layout.DestFolder(sourcePath, metadata),
		Metadata:   metadata,
	}
}

func pathSegment(metadata map[string]any, keys []string) string {
	for _, key := range keys {
		raw, ok := metadata[key].(string)
		if !ok {
			continue
		}
		v := strings.TrimSpace(strings.NewReplacer("/", "-", `\`, "-").Replace(raw))
		if v == "" || v == "." || v == ".." {
			continue
		}
		return v
	}
	return ""
}
