package coordinator

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// quiescenceTimers holds one timer per live pipeline. The fire callback runs
// once a pipeline has gone a full window without any inbound event; it is the
// completion backstop for pipelines whose agents went quiet.
type quiescenceTimers struct {
	mu     sync.Mutex
	window time.Duration
	timers map[uuid.UUID]*time.Timer
	fire   func(id uuid.UUID)
}

func newQuiescenceTimers(window time.Duration, fire func(uuid.UUID)) *quiescenceTimers {
	return &quiescenceTimers{
		window: window,
		timers: make(map[uuid.UUID]*time.Timer),
		fire:   fire,
	}
}

// Touch arms the pipeline's timer, or pushes an armed one out by a full
// window. Timers do not persist: after a restart the settle sweep re-arms
// them from storage.
func (q *quiescenceTimers) Touch(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t, ok := q.timers[id]; ok {
		t.Reset(q.window)
		return
	}
	q.timers[id] = time.AfterFunc(q.window, func() {
		q.Drop(id)
		q.fire(id)
	})
}

// Drop stops and forgets the pipeline's timer.
func (q *quiescenceTimers) Drop(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
}

// Armed reports whether the pipeline currently has a timer.
func (q *quiescenceTimers) Armed(id uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, ok := q.timers[id]
	return ok
}

// Stop drops every timer. Used on shutdown.
func (q *quiescenceTimers) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
}
