package vault

import "sync"

// keyedMutex serializes mutating operations per subscription key. Two
// in-flight charges on the same record would race on read-modify-write;
// the guard is held per key, and batch processing acquires/releases it per
// item rather than across the whole batch, preserving per-item isolation.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint64]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uint64]*keyedLock)}
}

// Lock acquires the mutex for the given key, creating it on first use.
func (k *keyedMutex) Lock(key uint64) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
}

// Unlock releases the mutex for the given key and frees it once no other
// goroutine is waiting, so the map does not grow with the key space.
func (k *keyedMutex) Unlock(key uint64) {
	k.mu.Lock()
	l := k.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	l.Unlock()
}
