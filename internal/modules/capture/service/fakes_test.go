package service_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"meetcap/internal/modules/capture/domain"
	captureout "meetcap/internal/modules/capture/port/out"
	apperrors "meetcap/internal/platform/errors"
)

// fakeClock advances its own time on every After call, so polling loops
// run instantly while still observing their deadlines.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// scriptMonitor answers window listings from titles(call) and process
// probes from running(call). Nil functions mean an unsupported probe.
type scriptMonitor struct {
	mu           sync.Mutex
	windowCalls  int
	processCalls int
	titles       func(call int) []string
	running      func(call int) bool
}

func (m *scriptMonitor) ListVisibleWindowTitles(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.titles == nil {
		return nil, apperrors.ErrProbeUnsupported
	}
	m.windowCalls++
	return m.titles(m.windowCalls), nil
}

func (m *scriptMonitor) IsClientProcessRunning(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running == nil {
		return false, apperrors.ErrProbeUnsupported
	}
	m.processCalls++
	return m.running(m.processCalls), nil
}

type fakeLauncher struct {
	err      error
	launched []string
}

func (l *fakeLauncher) Launch(_ context.Context, joinURL string) error {
	l.launched = append(l.launched, joinURL)
	return l.err
}

// eventLog records the order of side effects across fakes.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeControl struct {
	log     *eventLog
	dialErr error
	conns   []*fakeConn
	dialed  int
	seeds   []string
	// stopCtxErrs holds ctx.Err() as seen by each stop request.
	stopCtxErrs []error
}

func (c *fakeControl) Dial(context.Context) (captureout.ControlConn, error) {
	c.log.add("dial")
	if c.dialErr != nil {
		return nil, fmt.Errorf("dial: %w: %w", apperrors.ErrControlUnavailable, c.dialErr)
	}
	if c.dialed >= len(c.conns) {
		return nil, fmt.Errorf("dial: %w: no more connections", apperrors.ErrControlUnavailable)
	}
	conn := c.conns[c.dialed]
	conn.parent = c
	c.dialed++
	return conn, nil
}

type fakeConn struct {
	parent     *fakeControl
	startErr   error
	startFail  bool
	onStart    func()
	stopErr    error
	stopFail   bool
	outputPath string
	closed     bool
}

func (c *fakeConn) StartRecording(_ context.Context, seed string) (domain.ControlResponse, error) {
	c.parent.log.add("start")
	c.parent.seeds = append(c.parent.seeds, seed)
	if c.onStart != nil {
		c.onStart()
	}
	if c.startErr != nil {
		return domain.ControlResponse{}, fmt.Errorf("start: %w: %w", apperrors.ErrControlUnavailable, c.startErr)
	}
	return domain.ControlResponse{
		RequestType: domain.RequestStartRecord,
		RequestID:   seed + "_x",
		Status:      domain.RequestStatus{Result: !c.startFail, Code: 100},
	}, nil
}

func (c *fakeConn) StopRecording(ctx context.Context, seed string) (domain.ControlResponse, error) {
	c.parent.log.add("stop")
	c.parent.seeds = append(c.parent.seeds, seed)
	c.parent.stopCtxErrs = append(c.parent.stopCtxErrs, ctx.Err())
	if c.stopErr != nil {
		return domain.ControlResponse{}, fmt.Errorf("stop: %w: %w", apperrors.ErrControlUnavailable, c.stopErr)
	}
	resp := domain.ControlResponse{
		RequestType: domain.RequestStopRecord,
		RequestID:   seed + "_x",
		Status:      domain.RequestStatus{Result: !c.stopFail, Code: 100},
	}
	if c.outputPath != "" {
		resp.Data = map[string]any{"outputPath": c.outputPath}
	}
	return resp, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

// sizeSeq returns sizes[i] on the i-th call and repeats the last one.
// A negative size reports a missing file.
type sizeSeq struct {
	mu    sync.Mutex
	sizes []int64
	calls int
}

func (s *sizeSeq) Size(context.Context, string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := min(s.calls, len(s.sizes)-1)
	s.calls++
	if s.sizes[i] < 0 {
		return 0, fs.ErrNotExist
	}
	return s.sizes[i], nil
}

// growing never settles.
type growing struct {
	mu   sync.Mutex
	size int64
}

func (g *growing) Size(context.Context, string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.size += 1024
	return g.size, nil
}

type fakeQueue struct {
	log   *eventLog
	err   error
	tasks []domain.AudioTask
}

func (q *fakeQueue) Append(_ context.Context, task domain.AudioTask) error {
	q.log.add("append")
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *fakeQueue) List(context.Context) ([]domain.AudioTask, error) {
	return q.tasks, nil
}

type fixedID string

func (f fixedID) New() string { return string(f) }

var errBoom = errors.New("boom")
