package service

import "sync"

// keyedMutex serializes callers sharing a key while unrelated keys proceed in parallel.
// Entries are dropped once no caller holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refLock)}
}

// Lock blocks until key is free and returns the matching unlock
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// highWater remembers the greatest sequence issued per key by this process. The
// scan path reads committed records only, so a number handed out but not yet stored
// by its caller would otherwise be issued again.
type highWater struct {
	mu    sync.Mutex
	marks map[string]int64
}

func newHighWater() *highWater {
	return &highWater{marks: make(map[string]int64)}
}

// next returns seq raised above the greatest value recorded for key
func (h *highWater) next(key string, seq int64) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return max(seq, h.marks[key]+1)
}

func (h *highWater) record(key string, seq int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if seq > h.marks[key] {
		h.marks[key] = seq
	}
}
