// Package notify delivers user-facing toasts and state-change pings.
package notify

import (
	"log"
	"sync"
	"time"

	"querydesk/models"
)

// Notifier is a fire-and-forget toast sink.
type Notifier interface {
	Notify(title, message string, severity models.Severity)
}

// LogSink writes every notification to the standard logger.
type LogSink struct {
	Prefix string
}

func (s LogSink) Notify(title, message string, severity models.Severity) {
	log.Printf("%s[%s] %s: %s", s.Prefix, severity, title, message)
}

// Recorder buffers notifications until they are drained, so an HTTP
// response can carry the toasts produced while handling it.
type Recorder struct {
	mu    sync.Mutex
	items []models.Notification
	now   func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

func (r *Recorder) Notify(title, message string, severity models.Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, models.Notification{
		Title:    title,
		Message:  message,
		Severity: severity,
		Time:     r.now(),
	})
}

// Drain returns buffered notifications and empties the buffer.
func (r *Recorder) Drain() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.items
	r.items = nil
	return items
}

// Multi fans a notification out to every sink in order.
type Multi []Notifier

func (m Multi) Notify(title, message string, severity models.Severity) {
	for _, n := range m {
		if n != nil {
			n.Notify(title, message, severity)
		}
	}
}
