package clock

import "time"

// Clock abstracts time to keep usecases and polling loops deterministic in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func (SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Sleep blocks for d or until done fires, whichever comes first. It returns
// false when done fired first; an already closed done always wins.
func Sleep(c Clock, done <-chan struct{}, d time.Duration) bool {
	select {
	case <-done:
		return false
	default:
	}
	if d <= 0 {
		return true
	}
	select {
	case <-done:
		return false
	case <-c.After(d):
		return true
	}
}
