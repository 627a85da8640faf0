package domain

import (
	"fmt"
	"strings"
	"time"
)

// Entry is one record of the schedules file as stored. Raw holds the
// original JSON object so rewrites keep fields this program does not know.
type Entry struct {
	ID           string
	JoinURL      string
	ScheduleTime string
	Metadata     map[string]any
	Raw          []byte
}

// ScheduledSession is an entry whose schedule time parsed.
type ScheduledSession struct {
	Entry
	At time.Time
}

var scheduleLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseScheduleTime accepts RFC 3339 and the zone-less ISO forms the
// schedules file is written with. Zone-less values are read as UTC.
func ParseScheduleTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range scheduleLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised schedule time %q", raw)
}

// DropReason explains why Retain discarded an entry.
type DropReason string

const (
	DropNotFuture   DropReason = "not in the future"
	DropBadTime     DropReason = "unparsable schedule time"
	DropMissingURL  DropReason = "missing join url"
	DropDuplicateID DropReason = "duplicate id"
)

type Dropped struct {
	Entry  Entry
	Reason DropReason
}

// Retain keeps entries with a usable join url and a schedule time strictly
// after now. The first usable entry for an id wins.
func Retain(entries []Entry, now time.Time) ([]ScheduledSession, []Dropped) {
	kept := make([]ScheduledSession, 0, len(entries))
	var dropped []Dropped
	seen := map[string]bool{}
	for _, e := range entries {
		if strings.TrimSpace(e.JoinURL) == "" {
			dropped = append(dropped, Dropped{Entry: e, Reason: DropMissingURL})
			continue
		}
		at, err := ParseScheduleTime(e.ScheduleTime)
		if err != nil {
			dropped = append(dropped, Dropped{Entry: e, Reason: DropBadTime})
			continue
		}
		if !at.After(now) {
			dropped = append(dropped, Dropped{Entry: e, Reason: DropNotFuture})
			continue
		}
		if seen[e.ID] {
			dropped = append(dropped, Dropped{Entry: e, Reason: DropDuplicateID})
			continue
		}
		seen[e.ID] = true
		kept = append(kept, ScheduledSession{Entry: e, At: at})
	}
	return kept, dropped
}

// Find returns the first entry with id.
func Find(entries []Entry, id string) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}
