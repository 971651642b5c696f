// Package notify reports extension status to an operator-visible surface.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Severity is the rendered state of a status message.
type Severity string

const (
	SeverityInitializing Severity = "initializing"
	SeverityDanger       Severity = "danger"
	SeveritySuccess      Severity = "success"
	SeverityWarning      Severity = "warning"
)

// Message is one status update. Content holds one line per entry.
type Message struct {
	Severity Severity
	Content  []string
}

// Notifier is the host's status surface. It is optional; hosts without one
// get Nop.
type Notifier interface {
	Update(msg Message)
}

// Disposer is implemented by notifiers the host wants released on teardown.
type Disposer interface {
	Dispose()
}

// Factory creates the notifier handle of one activation. The handle is
// disposed when that activation is torn down.
type Factory func() Notifier

// Shared returns a Factory that hands out n to every activation. Dispose is
// not forwarded to n, so the caller keeps ownership of it.
func Shared(n Notifier) Factory {
	if n == nil {
		return func() Notifier { return Nop{} }
	}
	return func() Notifier { return shared{n} }
}

type shared struct {
	n Notifier
}

func (s shared) Update(msg Message) { s.n.Update(msg) }

// Ensure implementations satisfy the interface.
var (
	_ Notifier = Nop{}
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = (*Recorder)(nil)
)

// Nop discards every update.
type Nop struct{}

func (Nop) Update(Message) {}

// LogNotifier writes updates to a logger. Danger maps to error, warning to
// warn, the rest to info.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Update(msg Message) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	switch msg.Severity {
	case SeverityDanger:
		level = slog.LevelError
	case SeverityWarning:
		level = slog.LevelWarn
	}
	for _, line := range msg.Content {
		logger.Log(context.Background(), level, line, "severity", string(msg.Severity))
	}
}

// Recorder keeps every update. It is safe for concurrent use.
type Recorder struct {
	messages []Message
	disposed bool
	mu       sync.Mutex
}

func (r *Recorder) Update(msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Dispose implements Disposer.
func (r *Recorder) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disposed = true
}

// Messages returns a copy of the recorded updates.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Last returns the most recent update.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Disposed reports whether Dispose was called.
func (r *Recorder) Disposed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}
