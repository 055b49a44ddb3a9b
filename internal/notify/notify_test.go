package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScheduler records scheduled callbacks so tests can fire them on demand.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []*fakeTask
}

type fakeTask struct {
	after     time.Duration
	fn        func()
	cancelled bool
}

func (s *fakeScheduler) schedule(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &fakeTask{after: d, fn: fn}
	s.tasks = append(s.tasks, task)
	return func() {
		s.mu.Lock()
		task.cancelled = true
		s.mu.Unlock()
	}
}

func (s *fakeScheduler) fireAll() {
	s.mu.Lock()
	tasks := append([]*fakeTask(nil), s.tasks...)
	s.mu.Unlock()
	for _, task := range tasks {
		if !task.cancelled {
			task.fn()
		}
	}
}

func TestFeed_PostUsesDefaultDuration(t *testing.T) {
	sched := &fakeScheduler{}
	feed := NewFeed(WithScheduler(sched.schedule))

	id := feed.Error("Failed to remove item")

	active := feed.Active()
	require.Len(t, active, 1)
	assert.Equal(t, id, active[0].ID)
	assert.Equal(t, SeverityError, active[0].Severity)
	assert.Equal(t, 3000*time.Millisecond, active[0].Duration)
	require.Len(t, sched.tasks, 1)
	assert.Equal(t, DefaultDuration, sched.tasks[0].after)
}

func TestFeed_ExpiresAfterDuration(t *testing.T) {
	sched := &fakeScheduler{}
	feed := NewFeed(WithScheduler(sched.schedule))

	feed.Post("Saved", SeveritySuccess, 5*time.Second)
	feed.Info("Heads up")
	require.Len(t, feed.Active(), 2)

	sched.fireAll()

	assert.Empty(t, feed.Active())
}

func TestFeed_DismissCancelsTimer(t *testing.T) {
	sched := &fakeScheduler{}
	feed := NewFeed(WithScheduler(sched.schedule))

	id := feed.Success("Cart cleared successfully")
	assert.True(t, feed.Dismiss(id))
	assert.False(t, feed.Dismiss(id))

	assert.True(t, sched.tasks[0].cancelled)
	assert.Empty(t, feed.Active())
}

func TestFeed_Clear(t *testing.T) {
	sched := &fakeScheduler{}
	feed := NewFeed(WithScheduler(sched.schedule))

	feed.Info("one")
	feed.Info("two")
	feed.Clear()

	assert.Empty(t, feed.Active())
	for _, task := range sched.tasks {
		assert.True(t, task.cancelled)
	}
}

func TestFeed_WallClockExpiry(t *testing.T) {
	feed := NewFeed()

	feed.Post("short lived", SeverityWarning, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		return len(feed.Active()) == 0
	}, time.Second, 5*time.Millisecond)
}
