// ABOUTME: Clipboard capability interface with system and in-memory implementations.
// ABOUTME: The system implementation wraps golang.design/x/clipboard.

package monitor

import (
	"context"
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

// Clipboard abstracts platform clipboard access. The monitor depends
// only on this interface, never on platform details.
type Clipboard interface {
	// Read returns the current text contents. An empty string with a
	// nil error means the clipboard holds no text.
	Read(ctx context.Context) (string, error)

	// Write replaces the clipboard contents.
	Write(ctx context.Context, content string) error

	// ActiveApplication names the frontmost application, or "" when
	// the platform has no signal.
	ActiveApplication() string
}

// SystemClipboard reads and writes the OS clipboard.
type SystemClipboard struct{}

var initOnce sync.Once
var initErr error

// NewSystemClipboard initializes platform clipboard access. The
// underlying library is initialized once per process.
func NewSystemClipboard() (*SystemClipboard, error) {
	initOnce.Do(func() {
		initErr = clipboard.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("initializing clipboard: %w", initErr)
	}
	return &SystemClipboard{}, nil
}

func (s *SystemClipboard) Read(ctx context.Context) (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (s *SystemClipboard) Write(ctx context.Context, content string) error {
	clipboard.Write(clipboard.FmtText, []byte(content))
	return nil
}

// ActiveApplication has no portable implementation; ignore-list
// filtering degrades gracefully when the signal is absent.
func (s *SystemClipboard) ActiveApplication() string { return "" }

var _ Clipboard = (*SystemClipboard)(nil)

// MemoryClipboard is an in-memory Clipboard for tests.
type MemoryClipboard struct {
	mu      sync.Mutex
	content string
	app     string

	// ReadErr, when set, is returned by Read.
	ReadErr error
}

func NewMemoryClipboard() *MemoryClipboard {
	return &MemoryClipboard{}
}

func (m *MemoryClipboard) Read(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return "", m.ReadErr
	}
	return m.content, nil
}

func (m *MemoryClipboard) Write(ctx context.Context, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = content
	return nil
}

func (m *MemoryClipboard) ActiveApplication() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.app
}

// SetActiveApplication sets the reported frontmost application.
func (m *MemoryClipboard) SetActiveApplication(app string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.app = app
}

var _ Clipboard = (*MemoryClipboard)(nil)
