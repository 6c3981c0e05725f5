package registry

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// goroutineID extracts the calling goroutine's id from its stack trace
// header ("goroutine 123 [running]:"). There is no supported API for
// this; parsing runtime.Stack is the same trick several long-running Go
// services use to key per-goroutine state, and it is the only portable
// substitute for the "thread id" spec §5's recursive writer lock is
// keyed on.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}

// rwlock is the context-level lock of spec §5: a reader-writer lock plus
// a companion mutex tracking the owning goroutine and its recursion
// depth, so the current writer may call Lock/RLock again without
// deadlocking itself.
type rwlock struct {
	rw sync.RWMutex

	mu      sync.Mutex
	owner   uint64 // goroutine id of the current writer, 0 if none
	depth   int    // writer recursion depth
	readers map[uint64]int
}

func newRWLock() *rwlock {
	return &rwlock{readers: make(map[uint64]int)}
}

// Lock acquires the writer side, recursively if this goroutine already
// holds it.
func (l *rwlock) Lock() {
	gid := goroutineID()
	l.mu.Lock()
	if l.owner == gid && l.depth > 0 {
		l.depth++
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	l.rw.Lock()

	l.mu.Lock()
	l.owner = gid
	l.depth = 1
	l.mu.Unlock()
}

// Unlock releases one level of writer recursion; only the outermost
// call truly unlocks the underlying rwlock.
func (l *rwlock) Unlock() {
	l.mu.Lock()
	l.depth--
	if l.depth > 0 {
		l.mu.Unlock()
		return
	}
	l.owner = 0
	l.depth = 0
	l.mu.Unlock()

	l.rw.Unlock()
}

// RLock acquires the shared side. A goroutine already holding the
// writer lock is allowed to recurse into RLock: since it already
// excludes all other writers and readers, no further acquisition of the
// underlying primitive is needed.
func (l *rwlock) RLock() {
	gid := goroutineID()
	l.mu.Lock()
	if l.owner == gid && l.depth > 0 {
		l.depth++
		l.mu.Unlock()
		return
	}
	if n := l.readers[gid]; n > 0 {
		l.readers[gid] = n + 1
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	l.rw.RLock()

	l.mu.Lock()
	l.readers[gid]++
	l.mu.Unlock()
}

// RUnlock releases one level of reader recursion.
func (l *rwlock) RUnlock() {
	gid := goroutineID()
	l.mu.Lock()
	if l.owner == gid && l.depth > 0 {
		l.depth--
		l.mu.Unlock()
		return
	}
	n := l.readers[gid]
	last := n == 1
	if n <= 1 {
		delete(l.readers, gid)
	} else {
		l.readers[gid] = n - 1
	}
	l.mu.Unlock()

	if last {
		l.rw.RUnlock()
	}
}

// Upgrade releases the reader side this goroutine holds and reacquires
// the writer side, per spec §5's "lock_upgrade": not ABA-free, callers
// must restart any pattern-scan state afterward.
func (l *rwlock) Upgrade() {
	l.RUnlock()
	l.Lock()
}
