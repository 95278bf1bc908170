package coordinator

import (
	"sync"

	"github.com/google/uuid"
)

// keyLock serializes event handling per pipeline while keeping distinct
// pipelines fully parallel. Entries are reference counted and removed once
// the last holder releases, so the map does not grow with pipeline history.
type keyLock struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[uuid.UUID]*lockEntry)}
}

func (k *keyLock) Lock(id uuid.UUID) {
	k.mu.Lock()
	e, ok := k.locks[id]
	if !ok {
		e = &lockEntry{}
		k.locks[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *keyLock) Unlock(id uuid.UUID) {
	k.mu.Lock()
	e, ok := k.locks[id]
	if !ok {
		k.mu.Unlock()
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, id)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
