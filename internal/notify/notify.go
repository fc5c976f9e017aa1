// Package notify delivers user-facing success and error notifications
// (toasts) raised by console operations.
package notify

import (
	"log/slog"
	"sync"
)

// Notifier surfaces a message to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Publisher is the subset of the SSE broker used by Broadcast.
type Publisher interface {
	Publish(eventType string, data any)
}

// Log writes notifications to a structured logger.
type Log struct {
	Logger *slog.Logger
}

func (n Log) Success(msg string) { n.Logger.Info("notify: success", slog.String("message", msg)) }
func (n Log) Error(msg string)   { n.Logger.Warn("notify: error", slog.String("message", msg)) }

// Broadcast pushes notifications to connected consoles as toast.success and
// toast.error events.
type Broadcast struct {
	Pub Publisher
}

func (n Broadcast) Success(msg string) {
	n.Pub.Publish("toast.success", map[string]string{"message": msg})
}

func (n Broadcast) Error(msg string) {
	n.Pub.Publish("toast.error", map[string]string{"message": msg})
}

// Multi fans a notification out to every notifier.
type Multi []Notifier

func (m Multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}

// Message is one recorded notification.
type Message struct {
	Level string
	Text  string
}

// Recorder keeps notifications in memory. Useful in tests.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Success(msg string) { r.add("success", msg) }
func (r *Recorder) Error(msg string)   { r.add("error", msg) }

func (r *Recorder) add(level, msg string) {
	r.mu.Lock()
	r.msgs = append(r.msgs, Message{Level: level, Text: msg})
	r.mu.Unlock()
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}
