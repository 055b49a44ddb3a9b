// Package notify holds the transient, user-facing notifications of one session.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity of a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DefaultDuration is how long a notification stays visible when no duration is given.
const DefaultDuration = 3 * time.Second

// Notification is one visible message.
type Notification struct {
	ID       string        `json:"id"`
	Message  string        `json:"message"`
	Severity Severity      `json:"severity"`
	Duration time.Duration `json:"duration"`
	PostedAt time.Time     `json:"postedAt"`
}

// Scheduler runs fn once after d and returns a func that cancels it.
type Scheduler func(d time.Duration, fn func()) (cancel func())

// AfterFunc is the wall-clock Scheduler.
func AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Option configures a Feed.
type Option func(*Feed)

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) Option {
	return func(f *Feed) { f.schedule = s }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Feed) { f.now = now }
}

// Feed is safe for concurrent use.
type Feed struct {
	mu       sync.Mutex
	entries  []Notification
	cancels  map[string]func()
	schedule Scheduler
	now      func() time.Time
}

// NewFeed creates an empty feed.
func NewFeed(opts ...Option) *Feed {
	f := &Feed{
		cancels:  make(map[string]func()),
		schedule: AfterFunc,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Post shows a message and schedules its removal. A non-positive duration means DefaultDuration.
func (f *Feed) Post(message string, severity Severity, duration time.Duration) string {
	if duration <= 0 {
		duration = DefaultDuration
	}
	n := Notification{
		ID:       uuid.NewString(),
		Message:  message,
		Severity: severity,
		Duration: duration,
		PostedAt: f.now(),
	}

	f.mu.Lock()
	f.entries = append(f.entries, n)
	f.mu.Unlock()

	cancel := f.schedule(duration, func() { f.Dismiss(n.ID) })

	f.mu.Lock()
	if f.contains(n.ID) {
		f.cancels[n.ID] = cancel
	}
	f.mu.Unlock()

	return n.ID
}

// Info posts an info notification with the default duration.
func (f *Feed) Info(message string) string { return f.Post(message, SeverityInfo, 0) }

// Success posts a success notification with the default duration.
func (f *Feed) Success(message string) string { return f.Post(message, SeveritySuccess, 0) }

// Error posts an error notification with the default duration.
func (f *Feed) Error(message string) string { return f.Post(message, SeverityError, 0) }

// Dismiss removes a notification. It reports whether the id was visible.
func (f *Feed) Dismiss(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, n := range f.entries {
		if n.ID != id {
			continue
		}
		f.entries = append(f.entries[:i], f.entries[i+1:]...)
		if cancel, ok := f.cancels[id]; ok {
			delete(f.cancels, id)
			cancel()
		}
		return true
	}
	return false
}

// Clear removes every notification.
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, cancel := range f.cancels {
		cancel()
		delete(f.cancels, id)
	}
	f.entries = nil
}

// Active returns the visible notifications, oldest first.
func (f *Feed) Active() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Notification, len(f.entries))
	copy(out, f.entries)
	return out
}

func (f *Feed) contains(id string) bool {
	for _, n := range f.entries {
		if n.ID == id {
			return true
		}
	}
	return false
}
