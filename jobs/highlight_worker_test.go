package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/em0-omg/pdf-highlight-api/models"
)

// newIdleWorker builds a worker whose run loop is not started, so queued
// jobs stay queued.
func newIdleWorker(queueSize int) *HighlightWorker {
	return &HighlightWorker{
		jobs:        make(chan HighlightRequest, queueSize),
		subscribers: make(map[chan JobUpdate]bool),
	}
}

func TestEnqueue_DropsWhenFull(t *testing.T) {
	w := newIdleWorker(1)

	assert.True(t, w.Enqueue(HighlightRequest{JobID: "a"}))
	assert.False(t, w.Enqueue(HighlightRequest{JobID: "b"}))
}

func TestBroadcast_DeliversToSubscribers(t *testing.T) {
	w := newIdleWorker(1)

	ch := make(chan JobUpdate, 10)
	w.Subscribe(ch)

	w.broadcast(JobUpdate{JobID: "j1", Status: models.JobStatusRunning, PagesDone: 1, PagesTotal: 3})

	select {
	case update := <-ch:
		assert.Equal(t, "j1", update.JobID)
		assert.Equal(t, models.JobStatusRunning, update.Status)
		assert.Equal(t, 1, update.PagesDone)
	case <-time.After(time.Second):
		t.Fatal("expected an update")
	}
}

func TestBroadcast_SkipsSlowSubscribers(t *testing.T) {
	w := newIdleWorker(1)

	full := make(chan JobUpdate) // unbuffered, nobody reading
	w.Subscribe(full)

	done := make(chan struct{})
	go func() {
		w.broadcast(JobUpdate{JobID: "j2"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	w := newIdleWorker(1)

	ch := make(chan JobUpdate, 1)
	w.Subscribe(ch)
	w.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)

	w.broadcast(JobUpdate{JobID: "j3"}) // must not panic on removed channel
}

func TestJobUpdateFromModel(t *testing.T) {
	job := &models.HighlightJob{
		ID:         "abc",
		Status:     models.JobStatusFailed,
		PagesDone:  2,
		PagesTotal: 5,
		Error:      "boom",
	}

	update := jobUpdate(job)
	require.Equal(t, "abc", update.JobID)
	assert.Equal(t, models.JobStatusFailed, update.Status)
	assert.Equal(t, 2, update.PagesDone)
	assert.Equal(t, 5, update.PagesTotal)
	assert.Equal(t, "boom", update.Error)
}
