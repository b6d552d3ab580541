// ABOUTME: Polling change monitor that detects external clipboard changes.
// ABOUTME: Debounces, filters ignored applications and fans out events to subscribers.

package monitor

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thuanpham582002/ClipBook/internal/store"
)

const (
	// DefaultPollInterval is the tick interval of the poll loop.
	DefaultPollInterval = 250 * time.Millisecond

	// DefaultDebounce suppresses changes accepted too soon after the
	// previous one.
	DefaultDebounce = 100 * time.Millisecond
)

// Event is delivered to subscribers for each accepted change.
type Event struct {
	Item        *store.Item
	ContentType store.ContentType
	Timestamp   time.Time
}

// Subscriber receives change events on the poll loop's goroutine.
type Subscriber interface {
	OnChange(Event)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(Event)

func (f SubscriberFunc) OnChange(e Event) { f(e) }

// Statistics are in-memory monitoring counters, reset on restart.
type Statistics struct {
	TotalChanges    int
	CountsByType    map[store.ContentType]int
	LastChange      time.Time
	AverageInterval time.Duration
}

// Options configure a Monitor. Zero values select defaults.
type Options struct {
	PollInterval time.Duration
	Debounce     time.Duration
	IgnoreApps   []string
}

type subscription struct {
	id  string
	sub Subscriber
}

// Monitor polls a Clipboard for changes and dispatches accepted
// changes to subscribers in registration order. Each logical resource
// has its own lock so the poll loop never holds more than one at a
// time.
type Monitor struct {
	clip       Clipboard
	poll       time.Duration
	debounce   time.Duration
	ignoreApps map[string]struct{}
	logger     *slog.Logger

	runMu   sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	lastMu      sync.Mutex
	lastContent string
	lastChange  time.Time

	subMu sync.RWMutex
	subs  []subscription

	statsMu sync.Mutex
	stats   Statistics
}

// New builds a monitor over clip.
func New(clip Clipboard, opts Options) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	ignore := make(map[string]struct{}, len(opts.IgnoreApps))
	for _, app := range opts.IgnoreApps {
		ignore[app] = struct{}{}
	}
	return &Monitor{
		clip:       clip,
		poll:       opts.PollInterval,
		debounce:   opts.Debounce,
		ignoreApps: ignore,
		logger:     slog.Default().With("component", "monitor"),
		stats:      Statistics{CountsByType: make(map[store.ContentType]int)},
	}
}

// Start launches the poll loop. Starting a running monitor is a no-op.
func (m *Monitor) Start() {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.run(m.stop, m.done)
	m.logger.Info("monitoring started", "poll_interval", m.poll, "debounce", m.debounce)
}

// Stop halts the loop and waits for it to exit. Cancellation happens
// at the tick boundary: an in-flight dispatch finishes before the loop
// returns. Stopping a stopped monitor is a no-op.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	if !m.running {
		m.runMu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	done := m.done
	m.runMu.Unlock()

	<-done
	m.logger.Info("monitoring stopped")
}

// IsMonitoring reports whether the poll loop is running.
func (m *Monitor) IsMonitoring() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.running
}

// AddSubscriber registers sub and returns an id for removal.
// Subscribers are invoked synchronously in registration order.
func (m *Monitor) AddSubscriber(sub Subscriber) string {
	id := uuid.New().String()
	m.subMu.Lock()
	m.subs = append(m.subs, subscription{id: id, sub: sub})
	m.subMu.Unlock()
	return id
}

// RemoveSubscriber unregisters the subscriber with id. Unknown ids are
// ignored.
func (m *Monitor) RemoveSubscriber(id string) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for i, s := range m.subs {
		if s.id == id {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return
		}
	}
}

// ReadOnce reads the clipboard directly, bypassing the loop.
func (m *Monitor) ReadOnce(ctx context.Context) (string, error) {
	return m.clip.Read(ctx)
}

// Write sets the clipboard and primes the last-seen cache so the loop
// does not re-detect our own write as an external change.
func (m *Monitor) Write(ctx context.Context, content string) error {
	if err := m.clip.Write(ctx, content); err != nil {
		return err
	}
	m.lastMu.Lock()
	m.lastContent = content
	m.lastMu.Unlock()
	return nil
}

// Statistics returns a copy of the accumulated counters.
func (m *Monitor) Statistics() Statistics {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	counts := make(map[store.ContentType]int, len(m.stats.CountsByType))
	for k, v := range m.stats.CountsByType {
		counts[k] = v
	}
	stats := m.stats
	stats.CountsByType = counts
	return stats
}

func (m *Monitor) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.tick(context.Background())
		}
	}
}

// tick is one pass of the poll loop: read, filter, classify, dispatch.
func (m *Monitor) tick(ctx context.Context) {
	content, err := m.clip.Read(ctx)
	if err != nil {
		// A single bad poll must not stop monitoring.
		m.logger.Warn("clipboard read failed", "error", err)
		return
	}
	if strings.TrimSpace(content) == "" {
		return
	}

	now := time.Now().UTC()

	m.lastMu.Lock()
	unchanged := content == m.lastContent
	debounced := !m.lastChange.IsZero() && now.Sub(m.lastChange) < m.debounce
	m.lastMu.Unlock()
	if unchanged || debounced {
		return
	}

	app := m.clip.ActiveApplication()
	if _, ignored := m.ignoreApps[app]; ignored && app != "" {
		m.logger.Debug("ignoring change from application", "app", app)
		return
	}

	ctype := Classify(content)
	event := Event{
		Item:        store.NewItem(content, ctype, app),
		ContentType: ctype,
		Timestamp:   now,
	}

	m.recordChange(ctype, now)
	m.dispatch(event)

	m.lastMu.Lock()
	m.lastContent = content
	m.lastChange = now
	m.lastMu.Unlock()
}

// dispatch invokes subscribers in order. A panicking subscriber is
// logged and must not prevent later subscribers from running.
func (m *Monitor) dispatch(event Event) {
	m.subMu.RLock()
	subs := make([]subscription, len(m.subs))
	copy(subs, m.subs)
	m.subMu.RUnlock()

	for _, s := range subs {
		m.invoke(s, event)
	}
}

func (m *Monitor) invoke(s subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("subscriber panicked", "subscriber", s.id, "panic", r)
		}
	}()
	s.sub.OnChange(event)
}

func (m *Monitor) recordChange(ctype store.ContentType, now time.Time) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()

	if !m.stats.LastChange.IsZero() {
		interval := now.Sub(m.stats.LastChange)
		if m.stats.TotalChanges > 1 {
			// Rolling average over observed inter-change intervals.
			n := time.Duration(m.stats.TotalChanges - 1)
			m.stats.AverageInterval = (m.stats.AverageInterval*n + interval) / (n + 1)
		} else {
			m.stats.AverageInterval = interval
		}
	}
	m.stats.TotalChanges++
	m.stats.CountsByType[ctype]++
	m.stats.LastChange = now
}

// Classify heuristically types text content: markup containing an HTML
// root tag is Html, everything else Text. Image and File captures
// arrive pre-typed from the platform layer.
func Classify(content string) store.ContentType {
	if strings.Contains(content, "<") &&
		strings.Contains(strings.ToLower(content), "<html") {
		return store.TypeHTML
	}
	return store.TypeText
}
